// file: internals/features/attendance/reports/controller/attendance_report_controller.go
package controller

import (
	"strings"
	"time"

	reportService "absensiku_backend/internals/features/attendance/reports/service"
	helper "absensiku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttendanceReportController struct {
	Service *reportService.Service
}

func NewAttendanceReportController(svc *reportService.Service) *AttendanceReportController {
	return &AttendanceReportController{Service: svc}
}

const dateLayout = "2006-01-02"

func parseDateQuery(c *fiber.Ctx, key string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(c.Query(key)))
}

/* ===============================
   Handlers (read-only)
=================================*/

// GET /reports/class-statistics?class_id=&from=&to=
func (ctl *AttendanceReportController) ClassStatistics(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Query("class_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id tidak valid")
	}
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "from harus YYYY-MM-DD")
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "to harus YYYY-MM-DD")
	}
	if to.Before(from) {
		return helper.JsonError(c, fiber.StatusBadRequest, "Rentang tanggal terbalik")
	}

	stats, err := ctl.Service.ClassStatistics(c.Context(), classID, from, to)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "OK", stats)
}

// GET /reports/student-history?student_id=&from=&to=
func (ctl *AttendanceReportController) StudentHistory(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Query("student_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid")
	}
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "from harus YYYY-MM-DD")
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "to harus YYYY-MM-DD")
	}
	if to.Before(from) {
		return helper.JsonError(c, fiber.StatusBadRequest, "Rentang tanggal terbalik")
	}

	history, err := ctl.Service.StudentHistory(c.Context(), studentID, from, to)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "OK", history)
}

// GET /reports/daily-report?date=[&class_id=]
func (ctl *AttendanceReportController) DailyReport(c *fiber.Ctx) error {
	date, err := parseDateQuery(c, "date")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "date harus YYYY-MM-DD")
	}

	var classID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("class_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "class_id tidak valid")
		}
		classID = &id
	}

	rows, err := ctl.Service.DailyReport(c.Context(), date, classID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "OK", rows)
}
