package model

// Grade 年级 — 对应 grades
type Grade struct {
	GradeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"grade_id"`
	Name    string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	BaseModel
}

// TableName 指定表名
func (Grade) TableName() string { return "grades" }

// Stream 班级（年级下的平行班）— 对应 streams
type Stream struct {
	StreamID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"stream_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	GradeID  string `gorm:"type:uuid;not null"                             json:"grade_id"`
	BaseModel

	Grade *Grade `gorm:"foreignKey:GradeID;references:GradeID" json:"grade,omitempty"`
}

// TableName 指定表名
func (Stream) TableName() string { return "streams" }

// DisplayName 年级 + 班级名，如 "Grade 7 East"
func (s *Stream) DisplayName() string {
	if s.Grade == nil {
		return s.Name
	}
	return s.Grade.Name + " " + s.Name
}

// Subject 科目 — 对应 subjects
type Subject struct {
	SubjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code      string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	BaseModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// Teacher 教师 — 对应 teachers，任教科目经 teacher_subjects 关联
type Teacher struct {
	TeacherID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	FirstName string  `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName  string  `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email     *string `gorm:"type:varchar(255);uniqueIndex"                  json:"email,omitempty"`
	BaseModel

	Subjects []Subject `gorm:"many2many:teacher_subjects;joinForeignKey:TeacherID;joinReferences:SubjectID" json:"subjects,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// FullName 全名
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

// Teaches 是否任教该科目
func (t *Teacher) Teaches(subjectID string) bool {
	for i := range t.Subjects {
		if t.Subjects[i].SubjectID == subjectID {
			return true
		}
	}
	return false
}
