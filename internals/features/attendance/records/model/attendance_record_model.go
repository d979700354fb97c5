// file: internals/features/attendance/records/model/attendance_record_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Enums (selaras dgn DB)
========================= */

type RecordStatus string

const (
	RecordStatusPresent RecordStatus = "present"
	RecordStatusAbsent  RecordStatus = "absent"
	RecordStatusLate    RecordStatus = "late"
	RecordStatusExcused RecordStatus = "excused"
)

func ValidRecordStatus(s RecordStatus) bool {
	switch s {
	case RecordStatusPresent, RecordStatusAbsent, RecordStatusLate, RecordStatusExcused:
		return true
	}
	return false
}

/* =========================================
   Model: attendance_records
   Satu baris per (session, student), dibuat saat Start dari snapshot
   enrolment. Default absent — "innocent until marked present".
   ========================================= */

type AttendanceRecordModel struct {
	AttendanceRecordID uuid.UUID `gorm:"type:uuid;primaryKey;column:attendance_record_id" json:"attendance_record_id"`

	AttendanceRecordSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_session_student;column:attendance_record_session_id" json:"attendance_record_session_id"`
	AttendanceRecordStudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_session_student;index;column:attendance_record_student_id" json:"attendance_record_student_id"`

	AttendanceRecordStatus RecordStatus `gorm:"type:varchar(10);not null;default:'absent';column:attendance_record_status" json:"attendance_record_status"`

	// snapshot nama saat Start (roster beku, enak buat listing tanpa join)
	AttendanceRecordStudentNameSnapshot string `gorm:"type:varchar(120);not null;default:'';column:attendance_record_student_name_snapshot" json:"attendance_record_student_name_snapshot"`

	// meta penandaan — nil sampai ditandai eksplisit oleh staf
	AttendanceRecordMarkedAt *time.Time `gorm:"column:attendance_record_marked_at" json:"attendance_record_marked_at,omitempty"`
	AttendanceRecordMarkedBy *uuid.UUID `gorm:"type:uuid;column:attendance_record_marked_by" json:"attendance_record_marked_by,omitempty"`

	AttendanceRecordNote *string `gorm:"type:text;column:attendance_record_note" json:"attendance_record_note,omitempty"`

	AttendanceRecordCreatedAt time.Time `gorm:"not null;autoCreateTime;column:attendance_record_created_at" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:attendance_record_updated_at" json:"attendance_record_updated_at"`
}

func (AttendanceRecordModel) TableName() string {
	return "attendance_records"
}

func (m *AttendanceRecordModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceRecordID == uuid.Nil {
		m.AttendanceRecordID = uuid.New()
	}
	return nil
}
