// file: internals/features/attendance/notifications/service/transport.go
package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	notifModel "absensiku_backend/internals/features/attendance/notifications/model"
)

// Transport: pengiriman push/sms/email milik kolaborator eksternal.
// Engine cuma minta kirim dan nunggu callback status lewat
// Service.OnDeliveryUpdate.
type Transport interface {
	Send(ctx context.Context, n *notifModel.AttendanceNotificationModel) (deliveryID string, err error)
}

// ConsoleTransport: implementasi dev — log isi notifikasi dan bikin
// delivery id sendiri. Provider beneran tinggal implement Transport.
type ConsoleTransport struct{}

func (ConsoleTransport) Send(ctx context.Context, n *notifModel.AttendanceNotificationModel) (string, error) {
	log.Printf("[NOTIF] to=%s type=%s title=%q", n.AttendanceNotificationRecipientUserID, n.AttendanceNotificationType, n.AttendanceNotificationTitle)
	return "console-" + uuid.NewString(), nil
}
