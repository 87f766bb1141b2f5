package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/model"
	pkgerrors "github.com/Vitalis058/school-sms-backend-sub002/pkg/errors"
)

// ── 测试辅助 ──

type lessonEnv struct {
	svc    LessonService
	f      *fixture
	slotX  string
	slotY  string
	locker *mockLocker
}

func setupTestLessonService() *lessonEnv {
	f := newFixture()
	env := &lessonEnv{
		f:     f,
		slotX: f.addSlot("Period 1", "08:00", "08:40"),
		slotY: f.addSlot("Period 2", "08:40", "09:20"),
	}
	env.svc = NewLessonService(f.repo, nil, 5*time.Second, zap.NewNop())
	return env
}

func setupTestLessonServiceWithLocker() *lessonEnv {
	env := setupTestLessonService()
	env.locker = newMockLocker()
	env.svc = NewLessonService(env.f.repo, env.locker, 5*time.Second, zap.NewNop())
	return env
}

func lessonReq(teacherID, subjectID, streamID, slotID string, day model.Day) *dto.CreateLessonRequest {
	return &dto.CreateLessonRequest{
		Name:       "Lesson",
		Day:        int(day),
		TeacherID:  teacherID,
		SubjectID:  subjectID,
		StreamID:   streamID,
		TimeSlotID: slotID,
	}
}

func mustCreateLesson(t *testing.T, env *lessonEnv, req *dto.CreateLessonRequest) *dto.LessonResponse {
	t.Helper()
	resp, err := env.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	return resp
}

func conflictsOf(t *testing.T, err error) []dto.LessonConflict {
	t.Helper()
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("期望 ErrScheduleConflict，实际: %v", err)
	}
	var ce *ScheduleConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("期望 ScheduleConflictError，实际: %T", err)
	}
	return ce.Conflicts
}

// ── Create 测试 ──

func TestLessonService_Create_Success(t *testing.T) {
	env := setupTestLessonService()

	resp := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	if resp.ID == "" {
		t.Fatal("应返回课时 ID")
	}
	if resp.Day != 1 || resp.DayName != "Monday" {
		t.Errorf("期望 Monday，实际 %d/%s", resp.Day, resp.DayName)
	}
	if resp.TimeSlot == nil || resp.TimeSlot.StartTime != "08:00" {
		t.Errorf("响应应附带时间段信息，实际 %+v", resp.TimeSlot)
	}
	if resp.Teacher == nil || resp.Teacher.Name != "Jane Doe" {
		t.Errorf("响应应附带教师信息，实际 %+v", resp.Teacher)
	}
	if resp.Stream == nil || resp.Stream.GradeName != "Grade 7" {
		t.Errorf("响应应附带班级与年级信息，实际 %+v", resp.Stream)
	}
	if resp.Version != 1 {
		t.Errorf("新课时版本应为 1，实际 %d", resp.Version)
	}
}

func TestLessonService_Create_TeacherConflict(t *testing.T) {
	env := setupTestLessonService()
	l1 := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Create(context.Background(), lessonReq("t1", "sub-math", "s2", env.slotX, model.Monday))
	conflicts := conflictsOf(t, err)
	if len(conflicts) != 1 || conflicts[0].Type != dto.ConflictTeacher {
		t.Fatalf("期望 1 条教师冲突，实际 %+v", conflicts)
	}
	if conflicts[0].LessonID != l1.ID {
		t.Errorf("应指向已有课时 %s，实际 %s", l1.ID, conflicts[0].LessonID)
	}
}

func TestLessonService_Create_StreamConflict(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Create(context.Background(), lessonReq("t2", "sub-math", "s1", env.slotX, model.Monday))
	conflicts := conflictsOf(t, err)
	if len(conflicts) != 1 || conflicts[0].Type != dto.ConflictStream {
		t.Fatalf("期望 1 条班级冲突，实际 %+v", conflicts)
	}
	if conflicts[0].Teacher == nil || conflicts[0].Teacher.ID != "t1" {
		t.Errorf("班级冲突应携带已有课时的教师，实际 %+v", conflicts[0].Teacher)
	}
}

func TestLessonService_Create_DuplicateReportsBoth(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Create(context.Background(), lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	conflicts := conflictsOf(t, err)
	if len(conflicts) != 2 {
		t.Fatalf("完全重复应同时报告两类冲突，实际 %d 条", len(conflicts))
	}
	if len(env.f.lessons.lessons) != 1 {
		t.Errorf("冲突时不应写入，实际 %d 条课时", len(env.f.lessons.lessons))
	}
}

func TestLessonService_Create_SameTupleOtherDayAllowed(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Tuesday))
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotY, model.Monday))
}

func TestLessonService_Create_Unqualified(t *testing.T) {
	env := setupTestLessonService()

	_, err := env.svc.Create(context.Background(), lessonReq("t3", "sub-math", "s1", env.slotX, model.Monday))
	if !errors.Is(err, ErrUnqualifiedTeacher) {
		t.Fatalf("期望 ErrUnqualifiedTeacher，实际: %v", err)
	}
	var ue *UnqualifiedTeacherError
	if !errors.As(err, &ue) {
		t.Fatalf("期望 UnqualifiedTeacherError，实际: %T", err)
	}
	if ue.Detail.Teacher.ID != "t3" || ue.Detail.Subject.ID != "sub-math" {
		t.Errorf("详情应指明教师与科目，实际 %+v", ue.Detail)
	}
}

func TestLessonService_Create_ConflictTakesPrecedenceOverQualification(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	// t3 不教数学，同时 s1 在该时段已有课
	_, err := env.svc.Create(context.Background(), lessonReq("t3", "sub-math", "s1", env.slotX, model.Monday))
	if errors.Is(err, ErrUnqualifiedTeacher) {
		t.Fatal("冲突与资格问题并存时应报告冲突")
	}
	conflictsOf(t, err)
}

func TestLessonService_Create_UnknownReferences(t *testing.T) {
	env := setupTestLessonService()

	cases := []struct {
		name string
		req  *dto.CreateLessonRequest
		want error
	}{
		{"时间段", lessonReq("t1", "sub-math", "s1", "ts-missing", model.Monday), ErrTimeSlotNotFound},
		{"教师", lessonReq("t-missing", "sub-math", "s1", env.slotX, model.Monday), ErrTeacherNotFound},
		{"科目", lessonReq("t1", "sub-missing", "s1", env.slotX, model.Monday), ErrSubjectNotFound},
		{"班级", lessonReq("t1", "sub-math", "s-missing", env.slotX, model.Monday), ErrStreamNotFound},
	}
	for _, tc := range cases {
		if _, err := env.svc.Create(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s不存在: 期望 %v，实际 %v", tc.name, tc.want, err)
		}
	}
}

func TestLessonService_Create_InvalidDay(t *testing.T) {
	env := setupTestLessonService()

	for _, d := range []model.Day{0, 6} {
		if _, err := env.svc.Create(context.Background(), lessonReq("t1", "sub-math", "s1", env.slotX, d)); !errors.Is(err, ErrInvalidDay) {
			t.Errorf("day=%d 期望 ErrInvalidDay，实际: %v", d, err)
		}
	}
}

func TestLessonService_Create_RaceTranslatedToConflict(t *testing.T) {
	env := setupTestLessonService()

	// 本请求检测通过后、写入前，另一请求抢先占用了同一教师时段
	env.f.lessons.beforeWrite = func() {
		env.f.addLesson("Racer", model.Monday, "t1", "sub-math", "s2", env.slotX)
	}

	_, err := env.svc.Create(context.Background(), lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	conflicts := conflictsOf(t, err)
	if len(conflicts) != 1 || conflicts[0].Type != dto.ConflictTeacher || conflicts[0].LessonName != "Racer" {
		t.Errorf("应报告与抢先写入课时的教师冲突，实际 %+v", conflicts)
	}
}

// ── 分布式锁 ──

func TestLessonService_Create_LocksReleased(t *testing.T) {
	env := setupTestLessonServiceWithLocker()

	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	if len(env.locker.acquired) != 2 {
		t.Errorf("应获取教师与班级两把锁，实际 %v", env.locker.acquired)
	}
	if len(env.locker.held) != 0 {
		t.Errorf("请求结束后锁应全部释放，仍持有 %v", env.locker.held)
	}
}

func TestLessonService_Create_Busy(t *testing.T) {
	env := setupTestLessonServiceWithLocker()
	env.locker.held["schedule:teacher:t1:1:"+env.slotX] = "other"

	_, err := env.svc.Create(context.Background(), lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	if !errors.Is(err, ErrScheduleBusy) {
		t.Fatalf("期望 ErrScheduleBusy，实际: %v", err)
	}
	if _, ok := env.locker.held["schedule:stream:s1:1:"+env.slotX]; ok {
		t.Error("获取失败时已持有的锁应被释放")
	}
}

func TestLessonService_Create_LockerErrorDegrades(t *testing.T) {
	env := setupTestLessonServiceWithLocker()
	env.locker.err = errors.New("redis down")

	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
}

// ── Update 测试 ──

func TestLessonService_Update_MoveSlotNoSelfConflict(t *testing.T) {
	env := setupTestLessonService()
	l1 := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	resp, err := env.svc.Update(context.Background(), l1.ID, &dto.UpdateLessonRequest{TimeSlotID: strPtr(env.slotY)})
	if err != nil {
		t.Fatalf("移到空闲时段应成功: %v", err)
	}
	if resp.TimeSlot == nil || resp.TimeSlot.ID != env.slotY {
		t.Errorf("期望时段 %s，实际 %+v", env.slotY, resp.TimeSlot)
	}
	if resp.Version != 2 {
		t.Errorf("更新后版本应为 2，实际 %d", resp.Version)
	}
}

func TestLessonService_Update_SameTupleNoSelfConflict(t *testing.T) {
	env := setupTestLessonService()
	l1 := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	// 提交与当前完全相同的元组
	_, err := env.svc.Update(context.Background(), l1.ID, &dto.UpdateLessonRequest{
		Day: intPtr(1), TeacherID: strPtr("t1"), StreamID: strPtr("s1"), TimeSlotID: strPtr(env.slotX),
	})
	if err != nil {
		t.Errorf("自身不应构成冲突: %v", err)
	}
}

func TestLessonService_Update_IntoOccupiedSlot(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t2", "sub-eng", "s1", env.slotY, model.Monday))
	l2 := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Update(context.Background(), l2.ID, &dto.UpdateLessonRequest{TimeSlotID: strPtr(env.slotY)})
	conflicts := conflictsOf(t, err)
	if len(conflicts) != 1 || conflicts[0].Type != dto.ConflictStream {
		t.Errorf("期望 1 条班级冲突，实际 %+v", conflicts)
	}
}

func TestLessonService_Update_MoveDayIntoConflict(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s2", env.slotX, model.Tuesday))
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{Day: intPtr(2)})
	conflicts := conflictsOf(t, err)
	if conflicts[0].Type != dto.ConflictTeacher {
		t.Errorf("期望教师冲突，实际 %s", conflicts[0].Type)
	}
}

func TestLessonService_Update_NameOnlySkipsDetection(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	resp, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{
		Name: strPtr("Geometry"), Description: strPtr("Triangles"),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Name != "Geometry" || resp.Description == nil || *resp.Description != "Triangles" {
		t.Errorf("字段未合并，实际 %+v", resp)
	}
}

func TestLessonService_Update_SubjectChangeRequalifies(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{SubjectID: strPtr("sub-eng")})
	if !errors.Is(err, ErrUnqualifiedTeacher) {
		t.Errorf("改为未授权科目应失败，实际: %v", err)
	}
}

func TestLessonService_Update_TeacherChangeRequalifies(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	if _, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{TeacherID: strPtr("t3")}); !errors.Is(err, ErrUnqualifiedTeacher) {
		t.Errorf("换成未授权教师应失败，实际: %v", err)
	}
	if _, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{TeacherID: strPtr("t2")}); err != nil {
		t.Errorf("换成有资格的教师应成功: %v", err)
	}
}

func TestLessonService_Update_ConflictBeforeQualification(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t3", "sub-eng", "s2", env.slotY, model.Monday))
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	// 换成 t3（不教数学）并移到 t3 已占用的时段
	_, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{
		TeacherID: strPtr("t3"), TimeSlotID: strPtr(env.slotY),
	})
	conflictsOf(t, err)
}

func TestLessonService_Update_StaleVersion(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	if _, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{Name: strPtr("A")}); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}
	_, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{Name: strPtr("B"), Version: intPtr(1)})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestLessonService_Update_NotFound(t *testing.T) {
	env := setupTestLessonService()

	_, err := env.svc.Update(context.Background(), "nonexistent", &dto.UpdateLessonRequest{Name: strPtr("x")})
	if !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("期望 ErrLessonNotFound，实际: %v", err)
	}
}

func TestLessonService_Update_UnknownSlot(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	_, err := env.svc.Update(context.Background(), l.ID, &dto.UpdateLessonRequest{TimeSlotID: strPtr("ts-missing")})
	if !errors.Is(err, ErrTimeSlotNotFound) {
		t.Errorf("期望 ErrTimeSlotNotFound，实际: %v", err)
	}
}

// ── Delete / Get 测试 ──

func TestLessonService_DeleteAndGet(t *testing.T) {
	env := setupTestLessonService()
	l := mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))

	got, err := env.svc.GetByID(context.Background(), l.ID)
	if err != nil || got.ID != l.ID {
		t.Fatalf("GetByID 应成功: %v", err)
	}

	if err := env.svc.Delete(context.Background(), l.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := env.svc.GetByID(context.Background(), l.ID); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("删除后期望 ErrLessonNotFound，实际: %v", err)
	}
	if err := env.svc.Delete(context.Background(), l.ID); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("重复删除期望 ErrLessonNotFound，实际: %v", err)
	}

	// 删除后同一元组可重新排课
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
}

// ── List 测试 ──

func TestLessonService_List_OrderedByDayThenStart(t *testing.T) {
	env := setupTestLessonService()
	early := env.f.addSlot("Period 0", "07:20", "08:00")

	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotY, model.Wednesday))
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Wednesday))
	mustCreateLesson(t, env, lessonReq("t2", "sub-eng", "s1", env.slotY, model.Monday))
	mustCreateLesson(t, env, lessonReq("t2", "sub-eng", "s1", early, model.Friday))
	mustCreateLesson(t, env, lessonReq("t3", "sub-eng", "s2", early, model.Monday))

	list, err := env.svc.List(context.Background(), &dto.LessonListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("期望 5 条，实际 %d", len(list))
	}
	type key struct {
		day   int
		start string
	}
	want := []key{{1, "07:20"}, {1, "08:40"}, {3, "08:00"}, {3, "08:40"}, {5, "07:20"}}
	for i, w := range want {
		got := key{list[i].Day, list[i].TimeSlot.StartTime}
		if got != w {
			t.Errorf("第 %d 条期望 %+v，实际 %+v", i, w, got)
		}
	}
}

func TestLessonService_List_Filters(t *testing.T) {
	env := setupTestLessonService()
	mustCreateLesson(t, env, lessonReq("t1", "sub-math", "s1", env.slotX, model.Monday))
	mustCreateLesson(t, env, lessonReq("t2", "sub-eng", "s2", env.slotX, model.Monday))
	mustCreateLesson(t, env, lessonReq("t2", "sub-math", "s1", env.slotY, model.Tuesday))

	byStream, _ := env.svc.List(context.Background(), &dto.LessonListRequest{StreamID: "s1"})
	if len(byStream) != 2 {
		t.Errorf("s1 期望 2 条，实际 %d", len(byStream))
	}
	byTeacher, _ := env.svc.List(context.Background(), &dto.LessonListRequest{TeacherID: "t2"})
	if len(byTeacher) != 2 {
		t.Errorf("t2 期望 2 条，实际 %d", len(byTeacher))
	}
	bySubject, _ := env.svc.List(context.Background(), &dto.LessonListRequest{SubjectID: "sub-math"})
	if len(bySubject) != 2 {
		t.Errorf("数学期望 2 条，实际 %d", len(bySubject))
	}
	byDay, _ := env.svc.List(context.Background(), &dto.LessonListRequest{Day: intPtr(2)})
	if len(byDay) != 1 {
		t.Errorf("周二期望 1 条，实际 %d", len(byDay))
	}
}
