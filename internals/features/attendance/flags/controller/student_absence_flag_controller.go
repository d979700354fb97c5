// file: internals/features/attendance/flags/controller/student_absence_flag_controller.go
package controller

import (
	"errors"

	flagDTO "absensiku_backend/internals/features/attendance/flags/dto"
	flagService "absensiku_backend/internals/features/attendance/flags/service"
	helper "absensiku_backend/internals/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StudentAbsenceFlagController struct {
	Engine    *flagService.Engine
	Validator *validator.Validate
}

func NewStudentAbsenceFlagController(engine *flagService.Engine) *StudentAbsenceFlagController {
	return &StudentAbsenceFlagController{
		Engine:    engine,
		Validator: validator.New(),
	}
}

/* ===============================
   Handlers
=================================*/

// GET /absence-flags/pending?page=&per_page=
func (ctl *StudentAbsenceFlagController) ListPending(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	rows, total, err := ctl.Engine.ListPending(c.Context(), paging.Offset, paging.PerPage)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	pagination := helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helper.JsonList(c, "OK", rows, &pagination)
}

// POST /absence-flags/:id/clear
// Clear itu tindakan sekali jalan; clear kedua = 409, bukan no-op.
func (ctl *StudentAbsenceFlagController) Clear(c *fiber.Ctx) error {
	flagID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID flag tidak valid")
	}
	var req flagDTO.ClearFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	clearedBy, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	flag, err := ctl.Engine.Clear(c.Context(), flagID, clearedBy, req.Reason)
	switch {
	case errors.Is(err, flagService.ErrFlagNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Flag tidak ditemukan")
	case errors.Is(err, flagService.ErrAlreadyCleared):
		return helper.JsonError(c, fiber.StatusConflict, "Flag sudah di-clear sebelumnya")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Flag di-clear", flag)
}
