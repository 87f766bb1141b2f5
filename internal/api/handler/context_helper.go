package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/service"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/timeofday"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
//   - hhmm：24 小时制 "HH:MM"
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeofday.Valid(fl.Field().String())
	})
}

// bindFailed 统一处理参数绑定失败
// 请求体超限返回 413，字段校验失败在 details 中列出字段与规则
func bindFailed(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", strings.Join(fields, ", "))
		return
	}

	response.BadRequest(c, 10001, "参数校验失败")
}

// handleCommonError 各模块共用的兜底映射
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTransient):
		response.Error(c, http.StatusServiceUnavailable, 50001, "存储暂时不可用，请稍后重试")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
