package model

import (
	"fmt"
	"time"
)

// Day 上课日，1=周一 … 5=周五
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays 按顺序排列的全部上课日
var Weekdays = [...]Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Valid 是否为合法上课日
func (d Day) Valid() bool {
	return d >= Monday && d <= Friday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Weekday 对应的 time.Weekday
func (d Day) Weekday() time.Weekday {
	return time.Weekday(d)
}
