package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/timeofday"
)

// ── Mock TimeSlotRepository ──

type mockTimeSlotRepo struct {
	slots     map[string]*model.TimeSlot
	seq       int
	deleteErr error
}

func newMockTimeSlotRepo() *mockTimeSlotRepo {
	return &mockTimeSlotRepo{slots: make(map[string]*model.TimeSlot)}
}

func (m *mockTimeSlotRepo) Create(_ context.Context, slot *model.TimeSlot) error {
	if slot.TimeSlotID == "" {
		m.seq++
		slot.TimeSlotID = fmt.Sprintf("ts-%d", m.seq)
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	cp := *slot
	m.slots[slot.TimeSlotID] = &cp
	return nil
}

func (m *mockTimeSlotRepo) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	if s, ok := m.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// List 故意不排序：排序是调用方的职责
func (m *mockTimeSlotRepo) List(_ context.Context) ([]model.TimeSlot, error) {
	result := make([]model.TimeSlot, 0, len(m.slots))
	for _, s := range m.slots {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockTimeSlotRepo) Update(_ context.Context, slot *model.TimeSlot) error {
	if _, ok := m.slots[slot.TimeSlotID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *slot
	m.slots[slot.TimeSlotID] = &cp
	return nil
}

func (m *mockTimeSlotRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.slots, id)
	return nil
}

// ── Mock 目录数据 ──

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockStreamRepo struct {
	streams map[string]*model.Stream
}

func (m *mockStreamRepo) GetByID(_ context.Context, id string) (*model.Stream, error) {
	if s, ok := m.streams[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock LessonRepository ──
// 模拟数据库的两条唯一约束，并在读取时"预加载"关联

type mockLessonRepo struct {
	lessons  map[string]*model.Lesson
	seq      int
	slots    *mockTimeSlotRepo
	teachers *mockTeacherRepo
	subjects *mockSubjectRepo
	streams  *mockStreamRepo

	// beforeWrite 在写入前触发，用于模拟并发请求抢先落库
	beforeWrite func()
}

func (m *mockLessonRepo) hydrate(l *model.Lesson) model.Lesson {
	cp := *l
	if s, ok := m.slots.slots[l.TimeSlotID]; ok {
		ts := *s
		cp.TimeSlot = &ts
	}
	if t, ok := m.teachers.teachers[l.TeacherID]; ok {
		tc := *t
		cp.Teacher = &tc
	}
	if s, ok := m.subjects.subjects[l.SubjectID]; ok {
		sc := *s
		cp.Subject = &sc
	}
	if s, ok := m.streams.streams[l.StreamID]; ok {
		sc := *s
		cp.Stream = &sc
	}
	return cp
}

func (m *mockLessonRepo) violatesUnique(l *model.Lesson) error {
	for _, other := range m.lessons {
		if other.LessonID == l.LessonID || other.Day != l.Day || other.TimeSlotID != l.TimeSlotID {
			continue
		}
		if other.TeacherID == l.TeacherID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_lessons_teacher_slot"}
		}
		if other.StreamID == l.StreamID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_lessons_stream_slot"}
		}
	}
	return nil
}

func (m *mockLessonRepo) put(l *model.Lesson) {
	cp := *l
	cp.Teacher, cp.Subject, cp.Stream, cp.TimeSlot = nil, nil, nil, nil
	m.lessons[l.LessonID] = &cp
}

func (m *mockLessonRepo) Create(_ context.Context, lesson *model.Lesson) error {
	if m.beforeWrite != nil {
		hook := m.beforeWrite
		m.beforeWrite = nil
		hook()
	}
	if lesson.LessonID == "" {
		m.seq++
		lesson.LessonID = fmt.Sprintf("lesson-%02d", m.seq)
	}
	if err := m.violatesUnique(lesson); err != nil {
		return err
	}
	lesson.Version = 1
	lesson.CreatedAt = time.Now()
	lesson.UpdatedAt = lesson.CreatedAt
	m.put(lesson)
	return nil
}

func (m *mockLessonRepo) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		h := m.hydrate(l)
		return &h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// List 故意不排序：排序是调用方的职责
func (m *mockLessonRepo) List(_ context.Context, f repository.LessonFilter) ([]model.Lesson, error) {
	var result []model.Lesson
	for _, l := range m.lessons {
		if f.StreamID != "" && l.StreamID != f.StreamID {
			continue
		}
		if f.TeacherID != "" && l.TeacherID != f.TeacherID {
			continue
		}
		if f.SubjectID != "" && l.SubjectID != f.SubjectID {
			continue
		}
		if f.Day != 0 && l.Day != f.Day {
			continue
		}
		result = append(result, m.hydrate(l))
	}
	return result, nil
}

func (m *mockLessonRepo) FindAtSlot(_ context.Context, day model.Day, timeSlotID, teacherID, streamID, excludeID string) ([]model.Lesson, error) {
	var result []model.Lesson
	for _, l := range m.lessons {
		if l.Day != day || l.TimeSlotID != timeSlotID || l.LessonID == excludeID {
			continue
		}
		if l.TeacherID == teacherID || l.StreamID == streamID {
			result = append(result, m.hydrate(l))
		}
	}
	return result, nil
}

func (m *mockLessonRepo) CountByTimeSlot(_ context.Context, timeSlotID string) (int64, error) {
	var n int64
	for _, l := range m.lessons {
		if l.TimeSlotID == timeSlotID {
			n++
		}
	}
	return n, nil
}

func (m *mockLessonRepo) Update(_ context.Context, lesson *model.Lesson) error {
	if m.beforeWrite != nil {
		hook := m.beforeWrite
		m.beforeWrite = nil
		hook()
	}
	stored, ok := m.lessons[lesson.LessonID]
	if !ok || stored.Version != lesson.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if err := m.violatesUnique(lesson); err != nil {
		return err
	}
	lesson.Version++
	lesson.UpdatedAt = time.Now()
	m.put(lesson)
	return nil
}

func (m *mockLessonRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.lessons[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.lessons, id)
	return nil
}

// ── Mock PermissionRepository ──

type mockPermissionRepo struct {
	perms map[string][]model.RolePermission
}

func newMockPermissionRepo() *mockPermissionRepo {
	return &mockPermissionRepo{perms: make(map[string][]model.RolePermission)}
}

func (m *mockPermissionRepo) ListByRole(_ context.Context, role string) ([]model.RolePermission, error) {
	return append([]model.RolePermission(nil), m.perms[role]...), nil
}

func (m *mockPermissionRepo) ReplaceForRole(_ context.Context, role string, rules []model.RolePermission) error {
	for i := range rules {
		rules[i].Role = role
	}
	m.perms[role] = append([]model.RolePermission(nil), rules...)
	return nil
}

func (m *mockPermissionRepo) RulesForRole(ctx context.Context, role string) ([]permission.Rule, error) {
	perms, _ := m.ListByRole(ctx, role)
	rules := make([]permission.Rule, 0, len(perms))
	for i := range perms {
		rules = append(rules, perms[i].ToRule())
	}
	return rules, nil
}

// ── Mock Locker ──

type mockLocker struct {
	held     map[string]string
	acquired []string
	released []string
	err      error
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (m *mockLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	if _, busy := m.held[key]; busy {
		return "", false, nil
	}
	token := "tok-" + key
	m.held[key] = token
	m.acquired = append(m.acquired, key)
	return token, true, nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, key, token string) error {
	if m.held[key] == token {
		delete(m.held, key)
		m.released = append(m.released, key)
	}
	return nil
}

// ── 测试夹具 ──
//
// 科目：数学 sub-math、英语 sub-eng
// 教师：t1 只教数学；t2 教数学与英语；t3 只教英语
// 班级：s1 = Grade 7 East，s2 = Grade 7 West

type fixture struct {
	repo     *repository.Repository
	slots    *mockTimeSlotRepo
	lessons  *mockLessonRepo
	teachers *mockTeacherRepo
	subjects *mockSubjectRepo
	streams  *mockStreamRepo
	perms    *mockPermissionRepo
}

func newFixture() *fixture {
	math := model.Subject{SubjectID: "sub-math", Name: "Mathematics", Code: "MAT"}
	eng := model.Subject{SubjectID: "sub-eng", Name: "English", Code: "ENG"}
	grade := &model.Grade{GradeID: "g7", Name: "Grade 7"}

	f := &fixture{
		slots: newMockTimeSlotRepo(),
		teachers: &mockTeacherRepo{teachers: map[string]*model.Teacher{
			"t1": {TeacherID: "t1", FirstName: "Jane", LastName: "Doe", Subjects: []model.Subject{math}},
			"t2": {TeacherID: "t2", FirstName: "John", LastName: "Mwangi", Subjects: []model.Subject{math, eng}},
			"t3": {TeacherID: "t3", FirstName: "Amina", LastName: "Otieno", Subjects: []model.Subject{eng}},
		}},
		subjects: &mockSubjectRepo{subjects: map[string]*model.Subject{
			"sub-math": &math,
			"sub-eng":  &eng,
		}},
		streams: &mockStreamRepo{streams: map[string]*model.Stream{
			"s1": {StreamID: "s1", Name: "East", GradeID: "g7", Grade: grade},
			"s2": {StreamID: "s2", Name: "West", GradeID: "g7", Grade: grade},
		}},
		perms: newMockPermissionRepo(),
	}
	f.lessons = &mockLessonRepo{
		lessons:  make(map[string]*model.Lesson),
		slots:    f.slots,
		teachers: f.teachers,
		subjects: f.subjects,
		streams:  f.streams,
	}
	f.repo = &repository.Repository{
		TimeSlot:   f.slots,
		Lesson:     f.lessons,
		Teacher:    f.teachers,
		Subject:    f.subjects,
		Stream:     f.streams,
		Permission: f.perms,
	}
	return f
}

// addSlot 直接写入时间段（绕过目录校验）
func (f *fixture) addSlot(name, start, end string) string {
	s, _ := timeofday.Parse(start)
	e, _ := timeofday.Parse(end)
	slot := &model.TimeSlot{Name: name, StartMinutes: s, EndMinutes: e}
	_ = f.slots.Create(context.Background(), slot)
	return slot.TimeSlotID
}

// addLesson 直接写入课时（绕过排课校验）
func (f *fixture) addLesson(name string, day model.Day, teacherID, subjectID, streamID, slotID string) string {
	l := &model.Lesson{
		Name: name, Day: day,
		TeacherID: teacherID, SubjectID: subjectID, StreamID: streamID, TimeSlotID: slotID,
	}
	if err := f.lessons.Create(context.Background(), l); err != nil {
		panic(err)
	}
	return l.LessonID
}
