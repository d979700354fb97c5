// file: internals/features/attendance/sessions/dto/attendance_session_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ParseDate: semua tanggal di API pakai YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

/* =========================================================
   START (materialisasi sesi dari slot timetable)
   ========================================================= */

type StartSessionRequest struct {
	TimetableSessionID uuid.UUID `json:"timetable_session_id" validate:"required"`
	Date               string    `json:"date" validate:"required"`
}

/* =========================================================
   CANCEL
   ========================================================= */

type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CancelSlotRequest: batalkan occurrence yang belum pernah di-start
// (baris sesi belum ada). Tetap butuh alasan.
type CancelSlotRequest struct {
	TimetableSessionID uuid.UUID `json:"timetable_session_id" validate:"required"`
	Date               string    `json:"date" validate:"required"`
	Reason             string    `json:"reason" validate:"required,max=500"`
}
