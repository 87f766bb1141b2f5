package permission

import "context"

// Request 一次鉴权请求
type Request struct {
	Role     string
	Resource string
	Action   string
	Caller   Attributes // 调用者上下文：user_id / role / teacher_id
	Target   Attributes // 目标资源属性：路径参数与查询参数
}

// Evaluator 权限求值器
type Evaluator struct {
	rules *RuleCache
}

// NewEvaluator 创建求值器
func NewEvaluator(rules *RuleCache) *Evaluator {
	return &Evaluator{rules: rules}
}

// Allow 存在任一覆盖 (resource, action) 且全部条件成立的规则即放行
func (e *Evaluator) Allow(ctx context.Context, req Request) (bool, error) {
	rules, err := e.rules.Rules(ctx, req.Role)
	if err != nil {
		return false, err
	}
	for _, r := range rules {
		if r.Role != req.Role || !r.covers(req.Resource, req.Action) {
			continue
		}
		if r.satisfied(req.Caller, req.Target) {
			return true, nil
		}
	}
	return false, nil
}
