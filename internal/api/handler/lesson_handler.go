package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/service"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
)

// LessonHandler 排课模块 HTTP 处理器
type LessonHandler struct {
	lessonSvc service.LessonService
}

// NewLessonHandler 创建 LessonHandler
func NewLessonHandler(lessonSvc service.LessonService) *LessonHandler {
	return &LessonHandler{lessonSvc: lessonSvc}
}

// ListLessons 获取课时列表
// GET /api/v1/lessons?stream_id=&teacher_id=&subject_id=&day=
func (h *LessonHandler) ListLessons(c *gin.Context) {
	var req dto.LessonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	lessons, err := h.lessonSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": lessons})
}

// GetLesson 获取课时详情
// GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lesson, err := h.lessonSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, lesson)
}

// CreateLesson 排课
// POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	lesson, err := h.lessonSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.Created(c, lesson)
}

// UpdateLesson 调课
// PUT /api/v1/lessons/:id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	lesson, err := h.lessonSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, lesson)
}

// DeleteLesson 删除课时
// DELETE /api/v1/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	if err := h.lessonSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleLessonError 统一处理排课模块业务错误
// 冲突与资格问题在 data 中返回完整诊断信息
func handleLessonError(c *gin.Context, err error) {
	var (
		conflict    *service.ScheduleConflictError
		unqualified *service.UnqualifiedTeacherError
	)

	switch {
	case errors.As(err, &conflict):
		response.ErrorWithData(c, http.StatusConflict, 17002, "排课冲突", gin.H{"conflicts": conflict.Conflicts})
	case errors.As(err, &unqualified):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 17003, "教师不具备该科目的任教资格", unqualified.Detail)
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 17001, "课时不存在")
	case errors.Is(err, service.ErrTimeSlotNotFound):
		response.NotFound(c, 15001, "时间段不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 17004, "教师不存在")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 17004, "科目不存在")
	case errors.Is(err, service.ErrStreamNotFound):
		response.NotFound(c, 17004, "班级不存在")
	case errors.Is(err, service.ErrInvalidDay):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 17005, "课时已被其他人修改，请刷新后重试")
	case errors.Is(err, service.ErrScheduleBusy):
		response.Conflict(c, 17006, "该时间段正在被其他操作排课，请稍后重试")
	default:
		handleCommonError(c, err)
	}
}
