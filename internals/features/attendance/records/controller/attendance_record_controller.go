// file: internals/features/attendance/records/controller/attendance_record_controller.go
package controller

import (
	"errors"

	recordDTO "absensiku_backend/internals/features/attendance/records/dto"
	recordService "absensiku_backend/internals/features/attendance/records/service"
	helper "absensiku_backend/internals/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttendanceRecordController struct {
	Service   *recordService.Service
	Validator *validator.Validate
}

func NewAttendanceRecordController(svc *recordService.Service) *AttendanceRecordController {
	return &AttendanceRecordController{
		Service:   svc,
		Validator: validator.New(),
	}
}

/* ===============================
   Handlers
=================================*/

// POST /attendance-sessions/:id/mark
func (ctl *AttendanceRecordController) Mark(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID sesi tidak valid")
	}
	var req recordDTO.MarkRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	markedBy, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	item := req.ToItem()
	record, err := ctl.Service.SetStatus(c.Context(), sessionID, item.StudentID, item.Status, markedBy, item.Note)
	switch {
	case errors.Is(err, recordService.ErrSessionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
	case errors.Is(err, recordService.ErrSessionNotOpen):
		return helper.JsonError(c, fiber.StatusConflict, "Sesi tidak sedang berjalan")
	case errors.Is(err, recordService.ErrStudentNotInRoster):
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "Siswa tidak ada di roster sesi")
	case errors.Is(err, recordService.ErrInvalidStatus):
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "Status kehadiran tidak dikenal")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Kehadiran tercatat", record)
}

// POST /attendance-sessions/:id/bulk-mark
// Sukses parsial: item gagal dilaporkan per-item, sisanya tetap commit.
func (ctl *AttendanceRecordController) BulkMark(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID sesi tidak valid")
	}
	var req recordDTO.BulkMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	markedBy, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	results, err := ctl.Service.BulkSetStatus(c.Context(), sessionID, req.ToItems(), markedBy)
	switch {
	case errors.Is(err, recordService.ErrSessionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
	case errors.Is(err, recordService.ErrSessionNotOpen):
		return helper.JsonError(c, fiber.StatusConflict, "Sesi tidak sedang berjalan")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "Bulk mark diproses", fiber.Map{
		"results": results,
	})
}
