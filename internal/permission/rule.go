package permission

import "fmt"

// Wildcard 匹配任意资源或动作
const Wildcard = "*"

// Rule 角色权限规则
type Rule struct {
	Role       string      `json:"role"`
	Resource   string      `json:"resource"`
	Action     string      `json:"action"`
	Conditions []Condition `json:"conditions"`
}

// Validate 校验规则
func (r Rule) Validate() error {
	if r.Role == "" || r.Resource == "" || r.Action == "" {
		return fmt.Errorf("%w: role/resource/action 不能为空", ErrInvalidCondition)
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("第 %d 个条件: %w", i+1, err)
		}
	}
	return nil
}

func (r Rule) covers(resource, action string) bool {
	return (r.Resource == Wildcard || r.Resource == resource) &&
		(r.Action == Wildcard || r.Action == action)
}

func (r Rule) satisfied(caller, target Attributes) bool {
	for _, c := range r.Conditions {
		if !c.Holds(caller, target) {
			return false
		}
	}
	return true
}
