package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/service"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/response"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeICS  = "text/calendar; charset=utf-8"
)

// TimetableHandler 课表视图与导出 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
	exportSvc    service.ExportService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService, exportSvc service.ExportService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc, exportSvc: exportSvc}
}

// GetTimetable 按筛选条件获取课表网格
// GET /api/v1/timetables?stream_id=&teacher_id=&subject_id=&day=
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	var req dto.LessonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tt, err := h.timetableSvc.Get(c.Request.Context(), &req)
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, tt)
}

// GetStreamTimetable 班级课表
// GET /api/v1/timetables/streams/:stream_id
func (h *TimetableHandler) GetStreamTimetable(c *gin.Context) {
	tt, err := h.timetableSvc.ForStream(c.Request.Context(), c.Param("stream_id"))
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, tt)
}

// GetTeacherTimetable 教师课表
// GET /api/v1/timetables/teachers/:teacher_id
func (h *TimetableHandler) GetTeacherTimetable(c *gin.Context) {
	tt, err := h.timetableSvc.ForTeacher(c.Request.Context(), c.Param("teacher_id"))
	if err != nil {
		handleLessonError(c, err)
		return
	}

	response.OK(c, tt)
}

// ExportXLSX 导出课表为 Excel
// GET /api/v1/timetables/export.xlsx
func (h *TimetableHandler) ExportXLSX(c *gin.Context) {
	var req dto.LessonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, mimeXLSX, buf.Bytes())
}

// ExportICS 导出课表为 iCalendar
// GET /api/v1/timetables/export.ics?from=YYYY-MM-DD
func (h *TimetableHandler) ExportICS(c *gin.Context) {
	var req dto.ExportICSRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	body, filename, err := h.exportSvc.ExportICS(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, mimeICS, body)
}

func (h *TimetableHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAnchorDate):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleLessonError(c, err)
	}
}

// attachment 设置下载响应头并写出文件内容
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
