package model

import (
	"gorm.io/datatypes"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
)

// RolePermission 角色权限规则 — 对应 role_permissions
type RolePermission struct {
	ID         string                                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Role       string                                      `gorm:"type:varchar(30);not null;index"                json:"role"`
	Resource   string                                      `gorm:"type:varchar(50);not null"                      json:"resource"`
	Action     string                                      `gorm:"type:varchar(20);not null"                      json:"action"`
	Conditions datatypes.JSONType[[]permission.Condition] `gorm:"type:jsonb;not null"                            json:"conditions"`
	BaseModel
}

// TableName 指定表名
func (RolePermission) TableName() string { return "role_permissions" }

// ToRule 转换为求值器使用的规则
func (p *RolePermission) ToRule() permission.Rule {
	return permission.Rule{
		Role:       p.Role,
		Resource:   p.Resource,
		Action:     p.Action,
		Conditions: p.Conditions.Data(),
	}
}

// NewRolePermission 由规则构造持久化模型
func NewRolePermission(r permission.Rule) RolePermission {
	conds := r.Conditions
	if conds == nil {
		conds = []permission.Condition{}
	}
	return RolePermission{
		Role:       r.Role,
		Resource:   r.Resource,
		Action:     r.Action,
		Conditions: datatypes.NewJSONType(conds),
	}
}
