package dto

// ── 时间段模块 DTO ──

// CreateTimeSlotRequest 创建时间段请求
type CreateTimeSlotRequest struct {
	Name      string `json:"name"       binding:"required,min=1,max=50"`
	StartTime string `json:"start_time" binding:"required,hhmm"` // "08:00"
	EndTime   string `json:"end_time"   binding:"required,hhmm"` // "08:40"
}

// UpdateTimeSlotRequest 更新时间段请求（未提供的字段保持不变）
type UpdateTimeSlotRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=50"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
}

// TimeSlotResponse 时间段信息响应
type TimeSlotResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TimeSlotBrief 时间段简要信息
type TimeSlotBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
