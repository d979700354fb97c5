// file: internals/features/attendance/notifications/model/attendance_notification_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Enums (selaras dgn DB)
========================= */

type NotificationType string

const (
	NotificationTypeFlagRaised       NotificationType = "absence_flag_raised"
	NotificationTypeFlagCleared      NotificationType = "absence_flag_cleared"
	NotificationTypeSessionCompleted NotificationType = "session_completed_summary"
)

type NotificationStatus string

const (
	NotificationStatusCreated   NotificationStatus = "created"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// statusRank dipakai utk transisi monoton CREATED→SENT→DELIVERED→READ.
func statusRank(s NotificationStatus) int {
	switch s {
	case NotificationStatusCreated:
		return 0
	case NotificationStatusSent:
		return 1
	case NotificationStatusDelivered:
		return 2
	case NotificationStatusRead:
		return 3
	}
	return -1 // failed: terminal, di luar jalur maju
}

// CanAdvance: boleh maju ke next? (failed hanya dari created/sent)
func CanAdvance(cur, next NotificationStatus) bool {
	if cur == next {
		return false
	}
	if next == NotificationStatusFailed {
		return cur == NotificationStatusCreated || cur == NotificationStatusSent
	}
	if cur == NotificationStatusFailed {
		return false
	}
	return statusRank(next) > statusRank(cur)
}

/* =========================================
   Model: attendance_notifications
   Satu baris per (recipient, triggering event) — fan-out wali dimodelkan
   sebagai N baris independen supaya read/delivery state terpisah.
   ========================================= */

type AttendanceNotificationModel struct {
	AttendanceNotificationID uuid.UUID `gorm:"type:uuid;primaryKey;column:attendance_notification_id" json:"attendance_notification_id"`

	AttendanceNotificationRecipientUserID uuid.UUID  `gorm:"type:uuid;not null;index;column:attendance_notification_recipient_user_id" json:"attendance_notification_recipient_user_id"`
	AttendanceNotificationStudentID       *uuid.UUID `gorm:"type:uuid;index;column:attendance_notification_student_id" json:"attendance_notification_student_id,omitempty"`

	AttendanceNotificationType   NotificationType   `gorm:"type:varchar(40);not null;column:attendance_notification_type" json:"attendance_notification_type"`
	AttendanceNotificationStatus NotificationStatus `gorm:"type:varchar(12);not null;default:'created';column:attendance_notification_status" json:"attendance_notification_status"`

	AttendanceNotificationFlagID    *uuid.UUID `gorm:"type:uuid;column:attendance_notification_flag_id" json:"attendance_notification_flag_id,omitempty"`
	AttendanceNotificationSessionID *uuid.UUID `gorm:"type:uuid;column:attendance_notification_session_id" json:"attendance_notification_session_id,omitempty"`

	AttendanceNotificationTitle   string         `gorm:"type:varchar(255);not null;column:attendance_notification_title" json:"attendance_notification_title"`
	AttendanceNotificationBody    string         `gorm:"type:text;not null;default:'';column:attendance_notification_body" json:"attendance_notification_body"`
	AttendanceNotificationPayload datatypes.JSON `gorm:"column:attendance_notification_payload" json:"attendance_notification_payload,omitempty"`

	// kanal pengiriman yang diminta ke transport (push/sms/email)
	AttendanceNotificationChannels pq.StringArray `gorm:"type:text[];column:attendance_notification_channels" json:"attendance_notification_channels,omitempty"`

	// korelasi callback transport; unik saat terisi
	AttendanceNotificationDeliveryID *string `gorm:"type:varchar(80);uniqueIndex;column:attendance_notification_delivery_id" json:"attendance_notification_delivery_id,omitempty"`

	AttendanceNotificationCreatedAt   time.Time  `gorm:"not null;autoCreateTime;column:attendance_notification_created_at" json:"attendance_notification_created_at"`
	AttendanceNotificationSentAt      *time.Time `gorm:"column:attendance_notification_sent_at" json:"attendance_notification_sent_at,omitempty"`
	AttendanceNotificationDeliveredAt *time.Time `gorm:"column:attendance_notification_delivered_at" json:"attendance_notification_delivered_at,omitempty"`
	AttendanceNotificationReadAt      *time.Time `gorm:"column:attendance_notification_read_at" json:"attendance_notification_read_at,omitempty"`
	AttendanceNotificationFailedAt    *time.Time `gorm:"column:attendance_notification_failed_at" json:"attendance_notification_failed_at,omitempty"`
}

func (AttendanceNotificationModel) TableName() string {
	return "attendance_notifications"
}

func (m *AttendanceNotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceNotificationID == uuid.Nil {
		m.AttendanceNotificationID = uuid.New()
	}
	return nil
}
