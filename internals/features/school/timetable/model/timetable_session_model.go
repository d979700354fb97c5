// file: internals/features/school/timetable/model/timetable_session_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================
   Model: timetable_sessions (read-only bagi engine)
   Slot mingguan: subject/teacher/room/day-of-week/time.
   ========================================= */

type TimetableSessionModel struct {
	TimetableSessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:timetable_session_id" json:"timetable_session_id"`

	TimetableSessionClassID   uuid.UUID `gorm:"type:uuid;not null;index;column:timetable_session_class_id" json:"timetable_session_class_id"`
	TimetableSessionSubject   string    `gorm:"type:varchar(120);not null;column:timetable_session_subject" json:"timetable_session_subject"`
	TimetableSessionTeacherID uuid.UUID `gorm:"type:uuid;not null;column:timetable_session_teacher_id" json:"timetable_session_teacher_id"`
	TimetableSessionRoom      string    `gorm:"type:varchar(80);column:timetable_session_room" json:"timetable_session_room"`

	// ISO weekday: 1=Senin .. 7=Minggu
	TimetableSessionDayOfWeek int `gorm:"not null;column:timetable_session_day_of_week" json:"timetable_session_day_of_week"`

	// HH:MM
	TimetableSessionStartsAt string `gorm:"type:varchar(5);not null;column:timetable_session_starts_at" json:"timetable_session_starts_at"`
	TimetableSessionEndsAt   string `gorm:"type:varchar(5);not null;column:timetable_session_ends_at" json:"timetable_session_ends_at"`

	// urutan slot dalam satu hari
	TimetableSessionPosition int `gorm:"not null;default:0;column:timetable_session_position" json:"timetable_session_position"`

	TimetableSessionCreatedAt time.Time      `gorm:"not null;autoCreateTime;column:timetable_session_created_at" json:"timetable_session_created_at"`
	TimetableSessionUpdatedAt time.Time      `gorm:"not null;autoUpdateTime;column:timetable_session_updated_at" json:"timetable_session_updated_at"`
	TimetableSessionDeletedAt gorm.DeletedAt `gorm:"column:timetable_session_deleted_at;index" json:"timetable_session_deleted_at,omitempty"`
}

func (TimetableSessionModel) TableName() string {
	return "timetable_sessions"
}

func (m *TimetableSessionModel) BeforeCreate(tx *gorm.DB) error {
	if m.TimetableSessionID == uuid.Nil {
		m.TimetableSessionID = uuid.New()
	}
	return nil
}

// ISOWeekday memetakan time.Weekday (Minggu=0) ke 1=Senin..7=Minggu.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
