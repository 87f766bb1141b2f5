package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/config"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-0123456789",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "school-sms",
	})
}

// ── JWTAuth ──

func TestJWTAuth_RejectsMissingAndMalformed(t *testing.T) {
	r := gin.New()
	r.GET("/p", JWTAuth(newJWTManager(), nil, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization=%q 期望 401，实际 %d", header, w.Code)
		}
	}
}

func TestJWTAuth_InjectsIdentity(t *testing.T) {
	mgr := newJWTManager()
	token, err := mgr.GenerateAccessToken("u-1", "teacher", "t-1")
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}

	var gotUser, gotRole, gotTeacher string
	r := gin.New()
	r.GET("/p", JWTAuth(mgr, nil, zap.NewNop()), func(c *gin.Context) {
		gotUser = c.GetString(CtxUserID)
		gotRole = c.GetString(CtxRole)
		gotTeacher = c.GetString(CtxTeacherID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if gotUser != "u-1" || gotRole != "teacher" || gotTeacher != "t-1" {
		t.Errorf("上下文注入不正确: %s/%s/%s", gotUser, gotRole, gotTeacher)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"teacher", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/p", func(c *gin.Context) {
			if tc.role != "" {
				c.Set(CtxRole, tc.role)
			}
		}, RoleAuth("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
		if w.Code != tc.want {
			t.Errorf("role=%q 期望 %d，实际 %d", tc.role, tc.want, w.Code)
		}
	}
}

// ── Permission ──

type staticLoader map[string][]permission.Rule

func (l staticLoader) RulesForRole(_ context.Context, role string) ([]permission.Rule, error) {
	return l[role], nil
}

type failingLoader struct{}

func (failingLoader) RulesForRole(context.Context, string) ([]permission.Rule, error) {
	return nil, errors.New("db down")
}

func permissionEngine(loader permission.Loader) *gin.Engine {
	eval := permission.NewEvaluator(permission.NewRuleCache(nil, loader, time.Minute, zap.NewNop()))
	r := gin.New()
	identity := func(c *gin.Context) {
		c.Set(CtxUserID, "u-1")
		c.Set(CtxRole, c.GetHeader("X-Role"))
		c.Set(CtxTeacherID, c.GetHeader("X-Teacher"))
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/timetables/teachers/:teacher_id", identity,
		Permission(eval, "teacher_timetables", "read", zap.NewNop()), ok)
	r.GET("/timetables/export.xlsx", identity,
		Permission(eval, "timetables", "export", zap.NewNop()), ok)
	return r
}

func doAs(r *gin.Engine, role, teacherID, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Role", role)
	req.Header.Set("X-Teacher", teacherID)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestPermission_SelfConditionOnPathAndQuery(t *testing.T) {
	self := []permission.Condition{{Field: "teacher_id", Comparator: permission.Eq, Value: permission.SelfValue()}}
	r := permissionEngine(staticLoader{
		"teacher": {
			{Role: "teacher", Resource: "teacher_timetables", Action: "read", Conditions: self},
			{Role: "teacher", Resource: "timetables", Action: "export", Conditions: self},
		},
		"admin": {{Role: "admin", Resource: permission.Wildcard, Action: permission.Wildcard}},
	})

	cases := []struct {
		name    string
		role    string
		teacher string
		path    string
		want    int
	}{
		{"本人课表", "teacher", "t-1", "/timetables/teachers/t-1", http.StatusOK},
		{"他人课表", "teacher", "t-1", "/timetables/teachers/t-2", http.StatusForbidden},
		{"本人导出", "teacher", "t-1", "/timetables/export.xlsx?teacher_id=t-1", http.StatusOK},
		{"导出缺少 teacher_id", "teacher", "t-1", "/timetables/export.xlsx", http.StatusForbidden},
		{"无教师身份", "teacher", "", "/timetables/teachers/t-1", http.StatusForbidden},
		{"管理员通配", "admin", "", "/timetables/teachers/t-2", http.StatusOK},
		{"无规则角色", "student", "", "/timetables/teachers/t-2", http.StatusForbidden},
	}
	for _, tc := range cases {
		if got := doAs(r, tc.role, tc.teacher, tc.path); got != tc.want {
			t.Errorf("%s: 期望 %d，实际 %d", tc.name, tc.want, got)
		}
	}
}

func TestPermission_LoaderFailure(t *testing.T) {
	r := permissionEngine(failingLoader{})

	if got := doAs(r, "teacher", "t-1", "/timetables/teachers/t-1"); got != http.StatusServiceUnavailable {
		t.Errorf("规则加载失败期望 503，实际 %d", got)
	}
}

// ── RequestID / BodyLimit / SecurityHeaders ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用上游 Request-ID，实际 %q", w.Header().Get(requestIDHeader))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", requestIDMaxLen+1))
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Errorf("过长的 Request-ID 应被替换为 UUID，实际 %q", got)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限请求期望 413，实际 %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("ok")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限请求期望 200，实际 %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("缺少安全响应头: %v", w.Header())
	}
}
