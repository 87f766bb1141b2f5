package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/config"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/api/handler"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/api/middleware"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/jwt"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/redis"
)

// 受保护资源
const (
	resTimeSlots         = "time_slots"
	resLessons           = "lessons"
	resTimetables        = "timetables"
	resTeacherTimetables = "teacher_timetables"
	resPermissions       = "permissions"
)

// 动作
const (
	actRead   = "read"
	actCreate = "create"
	actUpdate = "update"
	actDelete = "delete"
	actExport = "export"
)

// Deps 路由所需的外部依赖
// Redis 为 nil 时黑名单与限流降级放行
type Deps struct {
	JWT       *jwt.Manager
	Redis     *redis.Client
	Evaluator *permission.Evaluator
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Check)

	can := func(resource, action string) gin.HandlerFunc {
		return middleware.Permission(deps.Evaluator, resource, action, deps.Logger)
	}
	limit := middleware.RateLimit(deps.Redis, cfg.Scheduling.RateLimit, cfg.Scheduling.RateLimitWindow)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(deps.JWT, deps.Redis, deps.Logger))
	{
		// 时间段目录
		timeSlots := v1.Group("/time-slots")
		{
			timeSlots.GET("", can(resTimeSlots, actRead), h.TimeSlot.ListTimeSlots)
			timeSlots.GET("/:id", can(resTimeSlots, actRead), h.TimeSlot.GetTimeSlot)
			timeSlots.POST("", can(resTimeSlots, actCreate), limit, h.TimeSlot.CreateTimeSlot)
			timeSlots.PUT("/:id", can(resTimeSlots, actUpdate), limit, h.TimeSlot.UpdateTimeSlot)
			timeSlots.DELETE("/:id", can(resTimeSlots, actDelete), limit, h.TimeSlot.DeleteTimeSlot)
		}

		// 排课
		lessons := v1.Group("/lessons")
		{
			lessons.GET("", can(resLessons, actRead), h.Lesson.ListLessons)
			lessons.GET("/:id", can(resLessons, actRead), h.Lesson.GetLesson)
			lessons.POST("", can(resLessons, actCreate), limit, h.Lesson.CreateLesson)
			lessons.PUT("/:id", can(resLessons, actUpdate), limit, h.Lesson.UpdateLesson)
			lessons.DELETE("/:id", can(resLessons, actDelete), limit, h.Lesson.DeleteLesson)
		}

		// 课表视图与导出
		timetables := v1.Group("/timetables")
		{
			timetables.GET("", can(resTimetables, actRead), h.Timetable.GetTimetable)
			timetables.GET("/streams/:stream_id", can(resTimetables, actRead), h.Timetable.GetStreamTimetable)
			timetables.GET("/teachers/:teacher_id", can(resTeacherTimetables, actRead), h.Timetable.GetTeacherTimetable)
			timetables.GET("/export.xlsx", can(resTimetables, actExport), h.Timetable.ExportXLSX)
			timetables.GET("/export.ics", can(resTimetables, actExport), h.Timetable.ExportICS)
		}

		// 权限规则（仅管理员）
		permissions := v1.Group("/permissions", middleware.RoleAuth("admin"))
		{
			permissions.GET("/:role", can(resPermissions, actRead), h.Permission.ListRules)
			permissions.PUT("/:role", can(resPermissions, actUpdate), h.Permission.ReplaceRules)
		}
	}

	return r, nil
}
