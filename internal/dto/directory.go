package dto

// TeacherBrief 教师简要信息
type TeacherBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubjectBrief 科目简要信息
type SubjectBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// StreamBrief 班级简要信息（含年级）
type StreamBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GradeID   string `json:"grade_id,omitempty"`
	GradeName string `json:"grade_name,omitempty"`
}
