// file: internals/features/attendance/notifications/dto/attendance_notification_dto.go
package dto

/* =========================================================
   DELIVERY CALLBACK (dari transport eksternal)
   ========================================================= */

type DeliveryCallbackRequest struct {
	DeliveryID string `json:"delivery_id" validate:"required,max=128"`
	Status     string `json:"status" validate:"required,oneof=sent delivered failed"`
}
