// file: internals/features/attendance/sessions/controller/attendance_session_controller.go
package controller

import (
	"errors"

	sessDTO "absensiku_backend/internals/features/attendance/sessions/dto"
	sessService "absensiku_backend/internals/features/attendance/sessions/service"
	enrollService "absensiku_backend/internals/features/school/enrollment/service"
	helper "absensiku_backend/internals/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttendanceSessionController struct {
	Service   *sessService.Service
	Validator *validator.Validate
}

func NewAttendanceSessionController(svc *sessService.Service) *AttendanceSessionController {
	return &AttendanceSessionController{
		Service:   svc,
		Validator: validator.New(),
	}
}

/* ===============================
   Handlers
=================================*/

// POST /attendance-sessions/start
func (ctl *AttendanceSessionController) Start(c *fiber.Ctx) error {
	var req sessDTO.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	date, err := sessDTO.ParseDate(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
	}
	teacherID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	sess, created, err := ctl.Service.Start(c.Context(), req.TimetableSessionID, date, teacherID)
	switch {
	case errors.Is(err, sessService.ErrSlotNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Slot timetable tidak ditemukan")
	case errors.Is(err, sessService.ErrInvalidSessionDate):
		return helper.JsonError(c, fiber.StatusConflict, "Tanggal tidak cocok dengan hari slot")
	case errors.Is(err, enrollService.ErrEnrollmentUnavailable):
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Data enrolment sedang tidak tersedia")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if created {
		return helper.JsonCreated(c, "Sesi kehadiran dimulai", sess)
	}
	// idempoten: sesi utk (slot, tanggal) sudah ada
	return helper.JsonOK(c, "Sesi kehadiran sudah berjalan", sess)
}

// POST /attendance-sessions/:id/complete
func (ctl *AttendanceSessionController) Complete(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID sesi tidak valid")
	}
	actorID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	sess, err := ctl.Service.Complete(c.Context(), sessionID, actorID)
	switch {
	case errors.Is(err, sessService.ErrSessionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
	case errors.Is(err, sessService.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, "Sesi tidak dalam status berjalan")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Sesi kehadiran selesai", sess)
}

// POST /attendance-sessions/:id/cancel
func (ctl *AttendanceSessionController) Cancel(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID sesi tidak valid")
	}
	var req sessDTO.CancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	actorID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	sess, err := ctl.Service.Cancel(c.Context(), sessionID, actorID, req.Reason)
	switch {
	case errors.Is(err, sessService.ErrSessionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
	case errors.Is(err, sessService.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, "Sesi sudah selesai / sudah dibatalkan")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Sesi kehadiran dibatalkan", sess)
}

// POST /attendance-sessions/cancel-slot
// Occurrence yang belum pernah start dimaterialisasi langsung sebagai canceled.
func (ctl *AttendanceSessionController) CancelSlot(c *fiber.Ctx) error {
	var req sessDTO.CancelSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	date, err := sessDTO.ParseDate(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
	}
	actorID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	sess, err := ctl.Service.CancelSlot(c.Context(), req.TimetableSessionID, date, actorID, req.Reason)
	switch {
	case errors.Is(err, sessService.ErrSlotNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Slot timetable tidak ditemukan")
	case errors.Is(err, sessService.ErrInvalidSessionDate):
		return helper.JsonError(c, fiber.StatusConflict, "Tanggal tidak cocok dengan hari slot")
	case errors.Is(err, sessService.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, "Sesi sudah selesai / sudah dibatalkan")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Occurrence dibatalkan", sess)
}

// GET /attendance-sessions/:id/students
func (ctl *AttendanceSessionController) Students(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID sesi tidak valid")
	}

	sess, records, err := ctl.Service.Roster(c.Context(), sessionID)
	switch {
	case errors.Is(err, sessService.ErrSessionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"session": sess,
		"records": records,
	})
}

// GET /attendance-sessions/schedule?class_id=&date=
// Status scheduled diturunkan: slot ada, baris sesi belum.
func (ctl *AttendanceSessionController) Schedule(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Query("class_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id tidak valid")
	}
	date, err := sessDTO.ParseDate(c.Query("date"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
	}

	entries, err := ctl.Service.ScheduleFor(c.Context(), classID, date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "OK", entries)
}
