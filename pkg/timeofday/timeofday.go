// Package timeofday 处理课表使用的 "HH:MM" 时刻。
// 对外一律为补零的 24 小时制字符串，内部统一换算为当日分钟数比较。
package timeofday

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay 一天的分钟数；合法的分钟值位于 [0, MinutesPerDay)
const MinutesPerDay = 24 * 60

var pattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ErrInvalidFormat 时刻格式不合法
var ErrInvalidFormat = errors.New("时间格式必须为 HH:MM（24 小时制）")

// Valid 判断字符串是否为合法的 HH:MM
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Parse 将 HH:MM 转为当日分钟数
func Parse(s string) (int, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, nil
}

// Format 将分钟数格式化为补零的 HH:MM
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps 半开区间 [a,b) 与 [s,e) 是否重叠；首尾相接不算重叠
func Overlaps(a, b, s, e int) bool {
	return a < e && s < b
}
