// file: internals/features/attendance/notifications/controller/attendance_notification_controller.go
package controller

import (
	"errors"

	notifDTO "absensiku_backend/internals/features/attendance/notifications/dto"
	notifModel "absensiku_backend/internals/features/attendance/notifications/model"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	helper "absensiku_backend/internals/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceNotificationController struct {
	Service   *notifService.Service
	Validator *validator.Validate
}

func NewAttendanceNotificationController(svc *notifService.Service) *AttendanceNotificationController {
	return &AttendanceNotificationController{
		Service:   svc,
		Validator: validator.New(),
	}
}

/* ===============================
   Handlers
=================================*/

// GET /notifications?page=&per_page=
// Hanya milik recipient yang login.
func (ctl *AttendanceNotificationController) List(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	paging := helper.ResolvePaging(c, 20, 100)

	rows, total, err := ctl.Service.ListForRecipient(c.Context(), userID, paging.Offset, paging.PerPage)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	pagination := helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helper.JsonList(c, "OK", rows, &pagination)
}

// POST /notifications/:id/mark-read
func (ctl *AttendanceNotificationController) MarkRead(c *fiber.Ctx) error {
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID notifikasi tidak valid")
	}
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	n, err := ctl.Service.MarkRead(c.Context(), notifID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Notifikasi tidak ditemukan")
	// bukan milik user → disamarkan jadi 404, jangan bocorkan keberadaan
	case errors.Is(err, notifService.ErrNotRecipient):
		return helper.JsonError(c, fiber.StatusNotFound, "Notifikasi tidak ditemukan")
	case errors.Is(err, notifService.ErrNotAdvanceable):
		return helper.JsonError(c, fiber.StatusConflict, "Notifikasi gagal terkirim, tidak bisa ditandai dibaca")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonUpdated(c, "Notifikasi ditandai dibaca", n)
}

// POST /internal/delivery-callback
// Dipanggil transport; status hanya boleh maju (regresi diabaikan diam-diam).
func (ctl *AttendanceNotificationController) DeliveryCallback(c *fiber.Ctx) error {
	var req notifDTO.DeliveryCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	err := ctl.Service.OnDeliveryUpdate(c.Context(), req.DeliveryID, notifModel.NotificationStatus(req.Status))
	switch {
	case errors.Is(err, notifService.ErrUnknownDelivery):
		return helper.JsonError(c, fiber.StatusNotFound, "delivery_id tidak dikenal")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "Status delivery diterima", nil)
}
