package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
)

// Permission 基于角色规则的访问闸门，须挂在 JWTAuth 之后
//
// 目标属性取自路径参数与查询参数（同名时路径参数优先），
// 例如 /timetables/teachers/:teacher_id 的 teacher_id 可与 self 条件比较。
func Permission(eval *permission.Evaluator, resource, action string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			return
		}

		req := permission.Request{
			Role:     role,
			Resource: resource,
			Action:   action,
			Caller:   callerAttributes(c),
			Target:   targetAttributes(c),
		}

		allowed, err := eval.Allow(c.Request.Context(), req)
		if err != nil {
			logger.Error("权限求值失败",
				zap.String("role", role), zap.String("resource", resource), zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, 50001, "权限服务暂时不可用")
			return
		}
		if !allowed {
			response.Forbidden(c, 10003, "无权限访问")
			return
		}

		c.Next()
	}
}

func callerAttributes(c *gin.Context) permission.Attributes {
	attrs := permission.Attributes{CtxRole: c.GetString(CtxRole)}
	if v := c.GetString(CtxUserID); v != "" {
		attrs[CtxUserID] = v
	}
	if v := c.GetString(CtxTeacherID); v != "" {
		attrs[CtxTeacherID] = v
	}
	return attrs
}

func targetAttributes(c *gin.Context) permission.Attributes {
	attrs := make(permission.Attributes)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			attrs[key] = values[0]
		}
	}
	for _, p := range c.Params {
		attrs[p.Key] = p.Value
	}
	return attrs
}
