// file: internals/features/attendance/sessions/model/attendance_session_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Enums (selaras dgn DB)
========================= */

type SessionStatus string

const (
	// scheduled tidak pernah dipersist — diturunkan dari slot timetable
	// yang belum punya baris sesi.
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCanceled   SessionStatus = "canceled"
)

/* =========================================
   Model: attendance_sessions
   Satu occurrence slot timetable pada satu tanggal.
   Counter selalu hasil recompute dari record set, bukan editan tangan.
   ========================================= */

type AttendanceSessionModel struct {
	AttendanceSessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:attendance_session_id" json:"attendance_session_id"`

	AttendanceSessionTimetableSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_sessions_slot_date;column:attendance_session_timetable_session_id" json:"attendance_session_timetable_session_id"`
	AttendanceSessionDate               time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_sessions_slot_date;column:attendance_session_date" json:"attendance_session_date"`

	AttendanceSessionClassID   uuid.UUID `gorm:"type:uuid;not null;index;column:attendance_session_class_id" json:"attendance_session_class_id"`
	AttendanceSessionTeacherID uuid.UUID `gorm:"type:uuid;not null;column:attendance_session_teacher_id" json:"attendance_session_teacher_id"`

	AttendanceSessionStatus SessionStatus `gorm:"type:varchar(20);not null;default:'in_progress';column:attendance_session_status" json:"attendance_session_status"`

	// rekap — recompute penuh tiap write
	AttendanceSessionTotalStudents int `gorm:"not null;default:0;column:attendance_session_total_students" json:"attendance_session_total_students"`
	AttendanceSessionPresentCount  int `gorm:"not null;default:0;column:attendance_session_present_count" json:"attendance_session_present_count"`
	AttendanceSessionAbsentCount   int `gorm:"not null;default:0;column:attendance_session_absent_count" json:"attendance_session_absent_count"`
	AttendanceSessionLateCount     int `gorm:"not null;default:0;column:attendance_session_late_count" json:"attendance_session_late_count"`
	AttendanceSessionExcusedCount  int `gorm:"not null;default:0;column:attendance_session_excused_count" json:"attendance_session_excused_count"`

	AttendanceSessionStartedAt    time.Time  `gorm:"not null;column:attendance_session_started_at" json:"attendance_session_started_at"`
	AttendanceSessionCompletedAt  *time.Time `gorm:"column:attendance_session_completed_at" json:"attendance_session_completed_at,omitempty"`
	AttendanceSessionCanceledAt   *time.Time `gorm:"column:attendance_session_canceled_at" json:"attendance_session_canceled_at,omitempty"`
	AttendanceSessionCancelReason *string    `gorm:"type:text;column:attendance_session_cancel_reason" json:"attendance_session_cancel_reason,omitempty"`

	AttendanceSessionCreatedAt time.Time `gorm:"not null;autoCreateTime;column:attendance_session_created_at" json:"attendance_session_created_at"`
	AttendanceSessionUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:attendance_session_updated_at" json:"attendance_session_updated_at"`
}

func (AttendanceSessionModel) TableName() string {
	return "attendance_sessions"
}

func (m *AttendanceSessionModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceSessionID == uuid.Nil {
		m.AttendanceSessionID = uuid.New()
	}
	return nil
}
