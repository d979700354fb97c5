// file: internals/features/attendance/flags/service/engine.go
package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absensiku_backend/internals/configs"
	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	auditModel "absensiku_backend/internals/features/audit/model"
	auditService "absensiku_backend/internals/features/audit/service"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
)

var (
	ErrAlreadyCleared = errors.New("flag sudah di-clear")
	ErrFlagNotFound   = errors.New("flag tidak ditemukan")
)

/* ===============================
   Policy — ambang dimodelkan eksplisit, dioper per invocation.
   Tidak ada global tersembunyi: per-sekolah bisa beda, test gampang.
=================================*/

type Policy struct {
	WindowThreshold      int  // N absen dalam window → flag window_threshold
	WindowDays           int  // panjang rolling window (hari)
	ConsecutiveThreshold int  // N absen berturut-turut → flag consecutive
	CountLate            bool // late ikut dihitung sebagai absen?
}

func DefaultPolicy() Policy {
	return Policy{
		WindowThreshold:      3,
		WindowDays:           30,
		ConsecutiveThreshold: 3,
		CountLate:            false,
	}
}

// PolicyFromEnv membaca override ambang dari ENV; fallback ke default.
func PolicyFromEnv() Policy {
	p := DefaultPolicy()
	if v, err := strconv.Atoi(configs.GetEnv("ABSENCE_THRESHOLD")); err == nil && v > 0 {
		p.WindowThreshold = v
	}
	if v, err := strconv.Atoi(configs.GetEnv("ABSENCE_WINDOW_DAYS")); err == nil && v > 0 {
		p.WindowDays = v
	}
	if v, err := strconv.Atoi(configs.GetEnv("ABSENCE_CONSECUTIVE")); err == nil && v > 0 {
		p.ConsecutiveThreshold = v
	}
	if configs.GetEnv("ABSENCE_COUNT_LATE") == "true" {
		p.CountLate = true
	}
	return p
}

func (p Policy) qualifyingStatuses() []recordModel.RecordStatus {
	if p.CountLate {
		return []recordModel.RecordStatus{recordModel.RecordStatusAbsent, recordModel.RecordStatusLate}
	}
	return []recordModel.RecordStatus{recordModel.RecordStatusAbsent}
}

/* =========================================
   Engine
   Raising idempoten: insert kondisional nabrak partial unique index
   (student, kind, uncleared) → duplikat jadi no-op, bukan race
   check-then-insert. Clear HANYA lewat aksi staf.
   ========================================= */

type Engine struct {
	DB         *gorm.DB
	Dispatcher *notifService.Service
	Audit      *auditService.Recorder
}

func NewEngine(db *gorm.DB, dispatcher *notifService.Service, audit *auditService.Recorder) *Engine {
	return &Engine{DB: db, Dispatcher: dispatcher, Audit: audit}
}

// Evaluate scan riwayat record siswa (window terbatas) dan bikin flag utk
// tiap pola yang terpenuhi. Jalan di dalam transaksi mark (tx), sinkron
// setelah write absent/late. Return: flag BARU saja (duplikat ke-skip).
func (e *Engine) Evaluate(ctx context.Context, tx *gorm.DB, studentID, triggeringRecordID uuid.UUID, asOf time.Time, policy Policy) ([]flagModel.StudentAbsenceFlagModel, error) {
	var created []flagModel.StudentAbsenceFlagModel

	windowHit, err := e.windowPatternMet(ctx, tx, studentID, asOf, policy)
	if err != nil {
		return nil, err
	}
	if windowHit {
		f, err := e.raise(ctx, tx, studentID, flagModel.FlagKindWindowThreshold, triggeringRecordID)
		if err != nil {
			return nil, err
		}
		if f != nil {
			created = append(created, *f)
		}
	}

	consecHit, err := e.consecutivePatternMet(ctx, tx, studentID, policy)
	if err != nil {
		return nil, err
	}
	if consecHit {
		f, err := e.raise(ctx, tx, studentID, flagModel.FlagKindConsecutive, triggeringRecordID)
		if err != nil {
			return nil, err
		}
		if f != nil {
			created = append(created, *f)
		}
	}

	// Pola tidak terpenuhi tapi masih ada flag aktif? Dibiarkan — clear
	// cuma lewat aksi staf, satu hari hadir tidak menghapus pola.
	return created, nil
}

// windowPatternMet: >= WindowThreshold absen dalam WindowDays terakhir,
// hanya dari sesi in_progress/completed.
func (e *Engine) windowPatternMet(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, asOf time.Time, policy Policy) (bool, error) {
	windowStart := asOf.AddDate(0, 0, -policy.WindowDays)

	var n int64
	err := tx.WithContext(ctx).
		Table("attendance_records AS ar").
		Joins("JOIN attendance_sessions AS s ON s.attendance_session_id = ar.attendance_record_session_id").
		Where("ar.attendance_record_student_id = ?", studentID).
		Where("ar.attendance_record_status IN ?", policy.qualifyingStatuses()).
		Where("s.attendance_session_status IN ?", []string{"in_progress", "completed"}).
		Where("s.attendance_session_date >= ?", windowStart).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n >= int64(policy.WindowThreshold), nil
}

// consecutivePatternMet: ConsecutiveThreshold record terakhir (urut tanggal
// sesi) semuanya qualifying.
func (e *Engine) consecutivePatternMet(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, policy Policy) (bool, error) {
	var statuses []recordModel.RecordStatus
	err := tx.WithContext(ctx).
		Table("attendance_records AS ar").
		Joins("JOIN attendance_sessions AS s ON s.attendance_session_id = ar.attendance_record_session_id").
		Where("ar.attendance_record_student_id = ?", studentID).
		Where("s.attendance_session_status IN ?", []string{"in_progress", "completed"}).
		Order("s.attendance_session_date DESC, s.attendance_session_created_at DESC").
		Limit(policy.ConsecutiveThreshold).
		Pluck("ar.attendance_record_status", &statuses).Error
	if err != nil {
		return false, err
	}
	if len(statuses) < policy.ConsecutiveThreshold {
		return false, nil
	}
	qualifying := map[recordModel.RecordStatus]bool{}
	for _, s := range policy.qualifyingStatuses() {
		qualifying[s] = true
	}
	for _, s := range statuses {
		if !qualifying[s] {
			return false, nil
		}
	}
	return true, nil
}

// raise: insert kondisional. ON CONFLICT DO NOTHING terhadap partial index
// aktif → re-deteksi pola yang belum di-clear tidak bikin duplikat.
func (e *Engine) raise(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, kind flagModel.FlagKind, triggeringRecordID uuid.UUID) (*flagModel.StudentAbsenceFlagModel, error) {
	flag := flagModel.StudentAbsenceFlagModel{
		StudentAbsenceFlagStudentID:          studentID,
		StudentAbsenceFlagKind:               kind,
		StudentAbsenceFlagTriggeringRecordID: triggeringRecordID,
	}

	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_absence_flag_student_id"},
			{Name: "student_absence_flag_kind"},
		},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "student_absence_flag_is_cleared = FALSE"},
		}},
		DoNothing: true,
	}).Create(&flag)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil // flag aktif sudah ada — idempoten
	}
	return &flag, nil
}

/* ===============================
   Clear — aksi staf eksplisit, exactly-once
=================================*/

func (e *Engine) Clear(ctx context.Context, flagID, clearedBy uuid.UUID, reason string) (*flagModel.StudentAbsenceFlagModel, error) {
	var flag flagModel.StudentAbsenceFlagModel

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&flag, "student_absence_flag_id = ?", flagID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFlagNotFound
			}
			return err
		}
		if flag.StudentAbsenceFlagIsCleared {
			return ErrAlreadyCleared
		}

		now := time.Now()
		res := tx.Model(&flagModel.StudentAbsenceFlagModel{}).
			Where("student_absence_flag_id = ? AND student_absence_flag_is_cleared = FALSE", flagID).
			Updates(map[string]any{
				"student_absence_flag_is_cleared":       true,
				"student_absence_flag_clearance_reason": reason,
				"student_absence_flag_cleared_by":       clearedBy,
				"student_absence_flag_cleared_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCleared // kalah race dgn clear lain
		}

		flag.StudentAbsenceFlagIsCleared = true
		flag.StudentAbsenceFlagClearanceReason = &reason
		flag.StudentAbsenceFlagClearedBy = &clearedBy
		flag.StudentAbsenceFlagClearedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.Audit != nil {
		e.Audit.Record(ctx, auditService.Event{
			Kind:      auditModel.EventFlagCleared,
			ActorID:   &clearedBy,
			StudentID: &flag.StudentAbsenceFlagStudentID,
			FlagID:    &flag.StudentAbsenceFlagID,
			Data:      map[string]any{"reason": reason},
		})
	}
	if e.Dispatcher != nil {
		name := e.studentName(ctx, flag.StudentAbsenceFlagStudentID)
		if _, err := e.Dispatcher.NotifyFlagCleared(ctx, &flag, name); err != nil {
			// notifikasi gagal tidak membatalkan clear
			log.Printf("[WARN] flag %s: notifikasi clear gagal: %v", flag.StudentAbsenceFlagID, err)
		}
	}

	return &flag, nil
}

func (e *Engine) studentName(ctx context.Context, studentID uuid.UUID) string {
	var names []string
	e.DB.WithContext(ctx).
		Table("school_students").
		Where("school_student_id = ?", studentID).
		Limit(1).
		Pluck("school_student_name", &names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

/* ===============================
   Staff view
=================================*/

type PendingFlagRow struct {
	flagModel.StudentAbsenceFlagModel
	StudentName string `gorm:"column:student_name" json:"student_name"`
}

// ListPending: flag yang belum di-clear, terbaru dulu.
func (e *Engine) ListPending(ctx context.Context, offset, limit int) ([]PendingFlagRow, int64, error) {
	base := e.DB.WithContext(ctx).
		Table("student_absence_flags AS f").
		Where("f.student_absence_flag_is_cleared = FALSE")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []PendingFlagRow
	if err := base.Session(&gorm.Session{}).
		Joins("LEFT JOIN school_students AS ss ON ss.school_student_id = f.student_absence_flag_student_id").
		Select("f.*, ss.school_student_name AS student_name").
		Order("f.student_absence_flag_created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
