// file: internals/features/attendance/reports/service/report_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
)

/* =========================================
   Reporting Facade — read-only, tanpa lock.
   Hanya sesi in_progress + completed yang dihitung; sesi in_progress
   menyumbang counter yang masih bisa berubah.
   ========================================= */

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

var countedStatuses = []string{"in_progress", "completed"}

// dateOnly: samakan normalisasi dgn sessions.Service supaya equality
// kolom date konsisten lintas driver.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type ClassStatistics struct {
	ClassID       uuid.UUID `json:"class_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	SessionCount  int64     `json:"session_count"`
	TotalStudents int       `json:"total_students"`
	PresentCount  int       `json:"present_count"`
	AbsentCount   int       `json:"absent_count"`
	LateCount     int       `json:"late_count"`
	ExcusedCount  int       `json:"excused_count"`
}

// ClassStatistics: agregat per status utk satu kelas dalam rentang tanggal.
func (s *Service) ClassStatistics(ctx context.Context, classID uuid.UUID, from, to time.Time) (*ClassStatistics, error) {
	type sums struct {
		N       int64 `gorm:"column:n"`
		Total   int   `gorm:"column:total"`
		Present int   `gorm:"column:present"`
		Absent  int   `gorm:"column:absent"`
		Late    int   `gorm:"column:late"`
		Excused int   `gorm:"column:excused"`
	}
	var row sums
	err := s.DB.WithContext(ctx).
		Model(&sessionModel.AttendanceSessionModel{}).
		Where("attendance_session_class_id = ?", classID).
		Where("attendance_session_status IN ?", countedStatuses).
		Where("attendance_session_date >= ? AND attendance_session_date <= ?", dateOnly(from), dateOnly(to)).
		Select(`COUNT(*) AS n,
			COALESCE(SUM(attendance_session_total_students),0) AS total,
			COALESCE(SUM(attendance_session_present_count),0) AS present,
			COALESCE(SUM(attendance_session_absent_count),0) AS absent,
			COALESCE(SUM(attendance_session_late_count),0) AS late,
			COALESCE(SUM(attendance_session_excused_count),0) AS excused`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &ClassStatistics{
		ClassID:       classID,
		From:          from.Format("2006-01-02"),
		To:            to.Format("2006-01-02"),
		SessionCount:  row.N,
		TotalStudents: row.Total,
		PresentCount:  row.Present,
		AbsentCount:   row.Absent,
		LateCount:     row.Late,
		ExcusedCount:  row.Excused,
	}, nil
}

type StudentHistoryEntry struct {
	RecordID    uuid.UUID  `gorm:"column:record_id" json:"record_id"`
	SessionID   uuid.UUID  `gorm:"column:session_id" json:"session_id"`
	SessionDate time.Time  `gorm:"column:session_date" json:"session_date"`
	Subject     string     `gorm:"column:subject" json:"subject"`
	Status      string     `gorm:"column:status" json:"status"`
	MarkedAt    *time.Time `gorm:"column:marked_at" json:"marked_at,omitempty"`
}

type StudentHistory struct {
	StudentID uuid.UUID                         `json:"student_id"`
	Records   []StudentHistoryEntry             `json:"records"`
	Flags     []flagModel.StudentAbsenceFlagModel `json:"flags"`
}

// StudentHistory: daftar record kronologis + riwayat flag siswa.
func (s *Service) StudentHistory(ctx context.Context, studentID uuid.UUID, from, to time.Time) (*StudentHistory, error) {
	var entries []StudentHistoryEntry
	err := s.DB.WithContext(ctx).
		Table("attendance_records AS ar").
		Joins("JOIN attendance_sessions AS s ON s.attendance_session_id = ar.attendance_record_session_id").
		Joins("LEFT JOIN timetable_sessions AS ts ON ts.timetable_session_id = s.attendance_session_timetable_session_id").
		Where("ar.attendance_record_student_id = ?", studentID).
		Where("s.attendance_session_status IN ?", countedStatuses).
		Where("s.attendance_session_date >= ? AND s.attendance_session_date <= ?", dateOnly(from), dateOnly(to)).
		Select(`ar.attendance_record_id AS record_id,
			s.attendance_session_id AS session_id,
			s.attendance_session_date AS session_date,
			COALESCE(ts.timetable_session_subject, '') AS subject,
			ar.attendance_record_status AS status,
			ar.attendance_record_marked_at AS marked_at`).
		Order("s.attendance_session_date ASC, s.attendance_session_created_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	var flags []flagModel.StudentAbsenceFlagModel
	if err := s.DB.WithContext(ctx).
		Where("student_absence_flag_student_id = ?", studentID).
		Order("student_absence_flag_created_at ASC").
		Find(&flags).Error; err != nil {
		return nil, err
	}

	return &StudentHistory{StudentID: studentID, Records: entries, Flags: flags}, nil
}

type DailyReportRow struct {
	SessionID    uuid.UUID `gorm:"column:session_id" json:"session_id"`
	ClassID      uuid.UUID `gorm:"column:class_id" json:"class_id"`
	Subject      string    `gorm:"column:subject" json:"subject"`
	Status       string    `gorm:"column:status" json:"status"`
	Total        int       `gorm:"column:total" json:"total"`
	PresentCount int       `gorm:"column:present_count" json:"present_count"`
	AbsentCount  int       `gorm:"column:absent_count" json:"absent_count"`
	LateCount    int       `gorm:"column:late_count" json:"late_count"`
	ExcusedCount int       `gorm:"column:excused_count" json:"excused_count"`
}

// DailyReport: ringkasan per sesi utk satu tanggal (opsional difilter kelas).
func (s *Service) DailyReport(ctx context.Context, date time.Time, classID *uuid.UUID) ([]DailyReportRow, error) {
	q := s.DB.WithContext(ctx).
		Table("attendance_sessions AS s").
		Joins("LEFT JOIN timetable_sessions AS ts ON ts.timetable_session_id = s.attendance_session_timetable_session_id").
		Where("s.attendance_session_status IN ?", countedStatuses).
		Where("s.attendance_session_date = ?", dateOnly(date))
	if classID != nil {
		q = q.Where("s.attendance_session_class_id = ?", *classID)
	}

	var rows []DailyReportRow
	err := q.Select(`s.attendance_session_id AS session_id,
			s.attendance_session_class_id AS class_id,
			COALESCE(ts.timetable_session_subject, '') AS subject,
			s.attendance_session_status AS status,
			s.attendance_session_total_students AS total,
			s.attendance_session_present_count AS present_count,
			s.attendance_session_absent_count AS absent_count,
			s.attendance_session_late_count AS late_count,
			s.attendance_session_excused_count AS excused_count`).
		Order("COALESCE(ts.timetable_session_position, 0) ASC, s.attendance_session_created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
