package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/service"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
)

// PermissionHandler 角色权限规则 HTTP 处理器
type PermissionHandler struct {
	permissionSvc service.PermissionService
}

// NewPermissionHandler 创建 PermissionHandler
func NewPermissionHandler(permissionSvc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionSvc: permissionSvc}
}

// ListRules 获取角色规则
// GET /api/v1/permissions/:role
func (h *PermissionHandler) ListRules(c *gin.Context) {
	rules, err := h.permissionSvc.ListRules(c.Request.Context(), c.Param("role"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// ReplaceRules 整体替换角色规则
// PUT /api/v1/permissions/:role
func (h *PermissionHandler) ReplaceRules(c *gin.Context) {
	var req dto.ReplaceRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	rules, err := h.permissionSvc.ReplaceRules(c.Request.Context(), c.Param("role"), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRule) {
			response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "权限规则不合法", err.Error())
			return
		}
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rules})
}
