package dto

import "github.com/Vitalis058/school-sms-backend-sub002/internal/permission"

// ── 权限规则 DTO ──

// RuleRequest 单条规则（角色取自路径）
type RuleRequest struct {
	Resource   string                 `json:"resource"   binding:"required,max=50"`
	Action     string                 `json:"action"     binding:"required,max=20"`
	Conditions []permission.Condition `json:"conditions"`
}

// ReplaceRulesRequest 整体替换某角色的规则
type ReplaceRulesRequest struct {
	Rules []RuleRequest `json:"rules" binding:"dive"`
}

// RuleResponse 规则响应
type RuleResponse struct {
	Role       string                 `json:"role"`
	Resource   string                 `json:"resource"`
	Action     string                 `json:"action"`
	Conditions []permission.Condition `json:"conditions"`
}
