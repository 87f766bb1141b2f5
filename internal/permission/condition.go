// Package permission 实现排课接口前置的角色权限闸门。
//
// 每条规则绑定 (角色, 资源, 动作)，并可附带若干条件。条件的取值既可以是字面量，
// 也可以是 self 哨兵：此时取调用者上下文中同名字段的值（例如教师只能查看
// teacher_id 等于自己的课表）。
package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Comparator 条件比较符
type Comparator string

const (
	Eq Comparator = "eq"
	Ne Comparator = "ne"
	In Comparator = "in" // 字面量为逗号分隔的候选列表
)

// Attributes 字段名 → 取值
type Attributes map[string]string

// Operand 条件右值：self 哨兵或字面量，二者互斥
type Operand struct {
	Self    bool   `json:"self,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// SelfValue self 哨兵
func SelfValue() Operand { return Operand{Self: true} }

// LiteralValue 字面量
func LiteralValue(v string) Operand { return Operand{Literal: v} }

// Condition 单个条件：target[Field] <Comparator> Value
type Condition struct {
	Field      string     `json:"field"`
	Comparator Comparator `json:"comparator"`
	Value      Operand    `json:"value"`
}

var ErrInvalidCondition = errors.New("权限条件不合法")

// Validate 校验条件结构
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("%w: field 不能为空", ErrInvalidCondition)
	}
	switch c.Comparator {
	case Eq, Ne:
	case In:
		if c.Value.Self {
			return fmt.Errorf("%w: in 比较不支持 self", ErrInvalidCondition)
		}
	default:
		return fmt.Errorf("%w: 未知比较符 %q", ErrInvalidCondition, c.Comparator)
	}
	if c.Value.Self && c.Value.Literal != "" {
		return fmt.Errorf("%w: self 与字面量不能同时设置", ErrInvalidCondition)
	}
	return nil
}

// resolve 取得右值；self 时读取调用者同名字段，调用者缺该字段则无法解析
func (o Operand) resolve(field string, caller Attributes) (string, bool) {
	if !o.Self {
		return o.Literal, true
	}
	v, ok := caller[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Holds 条件对给定调用者与目标是否成立
// 目标缺少该字段或 self 无法解析时一律不成立
func (c Condition) Holds(caller, target Attributes) bool {
	actual, ok := target[c.Field]
	if !ok {
		return false
	}
	expected, ok := c.Value.resolve(c.Field, caller)
	if !ok {
		return false
	}

	switch c.Comparator {
	case Eq:
		return actual == expected
	case Ne:
		return actual != expected
	case In:
		for _, candidate := range strings.Split(expected, ",") {
			if strings.TrimSpace(candidate) == actual {
				return true
			}
		}
		return false
	default:
		return false
	}
}
