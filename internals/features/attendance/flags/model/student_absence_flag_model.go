// file: internals/features/attendance/flags/model/student_absence_flag_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Enums (selaras dgn DB)
========================= */

type FlagKind string

const (
	// N absen dalam window hari berjalan
	FlagKindWindowThreshold FlagKind = "window_threshold"
	// N absen berturut-turut
	FlagKindConsecutive FlagKind = "consecutive"
)

/* =========================================
   Model: student_absence_flags
   Alert durable hasil rule engine. Maks satu flag AKTIF per
   (student, kind) — dijaga partial unique index, lihat databases.MigrateAll.
   Clear hanya lewat aksi staf eksplisit, tidak pernah otomatis.
   ========================================= */

type StudentAbsenceFlagModel struct {
	StudentAbsenceFlagID uuid.UUID `gorm:"type:uuid;primaryKey;column:student_absence_flag_id" json:"student_absence_flag_id"`

	StudentAbsenceFlagStudentID uuid.UUID `gorm:"type:uuid;not null;index;column:student_absence_flag_student_id" json:"student_absence_flag_student_id"`
	StudentAbsenceFlagKind      FlagKind  `gorm:"type:varchar(20);not null;column:student_absence_flag_kind" json:"student_absence_flag_kind"`

	// record yang memicu deteksi pola
	StudentAbsenceFlagTriggeringRecordID uuid.UUID `gorm:"type:uuid;not null;column:student_absence_flag_triggering_record_id" json:"student_absence_flag_triggering_record_id"`

	StudentAbsenceFlagIsCleared       bool       `gorm:"not null;default:false;column:student_absence_flag_is_cleared" json:"student_absence_flag_is_cleared"`
	StudentAbsenceFlagClearanceReason *string    `gorm:"type:text;column:student_absence_flag_clearance_reason" json:"student_absence_flag_clearance_reason,omitempty"`
	StudentAbsenceFlagClearedBy       *uuid.UUID `gorm:"type:uuid;column:student_absence_flag_cleared_by" json:"student_absence_flag_cleared_by,omitempty"`
	StudentAbsenceFlagClearedAt       *time.Time `gorm:"column:student_absence_flag_cleared_at" json:"student_absence_flag_cleared_at,omitempty"`

	StudentAbsenceFlagCreatedAt time.Time `gorm:"not null;autoCreateTime;column:student_absence_flag_created_at" json:"student_absence_flag_created_at"`
}

func (StudentAbsenceFlagModel) TableName() string {
	return "student_absence_flags"
}

func (m *StudentAbsenceFlagModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentAbsenceFlagID == uuid.Nil {
		m.StudentAbsenceFlagID = uuid.New()
	}
	return nil
}
