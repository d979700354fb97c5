// file: internals/features/attendance/records/service/record_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	flagService "absensiku_backend/internals/features/attendance/flags/service"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	sessionService "absensiku_backend/internals/features/attendance/sessions/service"
	auditModel "absensiku_backend/internals/features/audit/model"
	auditService "absensiku_backend/internals/features/audit/service"
)

var (
	ErrSessionNotFound    = errors.New("sesi tidak ditemukan")
	ErrSessionNotOpen     = errors.New("sesi tidak sedang in_progress")
	ErrStudentNotInRoster = errors.New("siswa tidak ada di roster sesi")
	ErrInvalidStatus      = errors.New("status kehadiran tidak dikenal")
)

type MarkItem struct {
	StudentID uuid.UUID                `json:"student_id"`
	Status    recordModel.RecordStatus `json:"status"`
	Note      *string                  `json:"note,omitempty"`
}

// ItemResult: hasil per item bulk — item gagal tidak membatalkan item lain
// (ngisi 30 siswa, satu typo, 29 lainnya tetap masuk).
type ItemResult struct {
	StudentID uuid.UUID                          `json:"student_id"`
	OK        bool                               `json:"ok"`
	Error     string                             `json:"error,omitempty"`
	Record    *recordModel.AttendanceRecordModel `json:"record,omitempty"`
}

/* =========================================
   Record Ledger
   Satu-satunya jalur mutasi attendance_records. Tiap write sukses:
   update record → recompute 4 counter dari record set penuh →
   rule engine utk status yang qualifying.
   ========================================= */

type Service struct {
	DB         *gorm.DB
	Locks      *sessionService.LockTable
	Engine     *flagService.Engine
	Dispatcher *notifService.Service
	Audit      *auditService.Recorder
	Policy     flagService.Policy
}

func NewService(db *gorm.DB, locks *sessionService.LockTable, engine *flagService.Engine, dispatcher *notifService.Service, audit *auditService.Recorder, policy flagService.Policy) *Service {
	return &Service{
		DB:         db,
		Locks:      locks,
		Engine:     engine,
		Dispatcher: dispatcher,
		Audit:      audit,
		Policy:     policy,
	}
}

// SetStatus menandai satu siswa. Error item tunggal dinaikkan jadi error
// betulan (beda dgn bulk yang per-item).
func (s *Service) SetStatus(ctx context.Context, sessionID, studentID uuid.UUID, status recordModel.RecordStatus, markedBy uuid.UUID, note *string) (*recordModel.AttendanceRecordModel, error) {
	results, err := s.BulkSetStatus(ctx, sessionID, []MarkItem{{StudentID: studentID, Status: status, Note: note}}, markedBy)
	if err != nil {
		return nil, err
	}
	r := results[0]
	if !r.OK {
		switch r.Error {
		case "not_enrolled":
			return nil, ErrStudentNotInRoster
		case "invalid_status":
			return nil, ErrInvalidStatus
		default:
			return nil, errors.New(r.Error)
		}
	}
	return r.Record, nil
}

// BulkSetStatus menerapkan set mark sebagai satu langkah serial per sesi.
// Precondition seluruh call: sesi ada dan in_progress. Item dievaluasi
// independen; sukses parsial tetap commit.
func (s *Service) BulkSetStatus(ctx context.Context, sessionID uuid.UUID, items []MarkItem, markedBy uuid.UUID) ([]ItemResult, error) {
	unlock := s.Locks.Lock(sessionID.String())
	defer unlock()

	results := make([]ItemResult, 0, len(items))
	var createdFlags []flagModel.StudentAbsenceFlagModel
	studentNames := map[uuid.UUID]string{}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess sessionModel.AttendanceSessionModel
		if err := tx.First(&sess, "attendance_session_id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if sess.AttendanceSessionStatus != sessionModel.SessionStatusInProgress {
			return ErrSessionNotOpen
		}

		now := time.Now()
		// siswa yang statusnya beset jadi qualifying → cek pola setelahnya
		evaluate := map[uuid.UUID]uuid.UUID{} // studentID → triggering record

		for _, item := range items {
			if !recordModel.ValidRecordStatus(item.Status) {
				results = append(results, ItemResult{StudentID: item.StudentID, Error: "invalid_status"})
				continue
			}

			var rec recordModel.AttendanceRecordModel
			err := tx.First(&rec,
				"attendance_record_session_id = ? AND attendance_record_student_id = ?",
				sessionID, item.StudentID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// roster beku: tidak ada jalur "tambah record di tengah sesi"
					results = append(results, ItemResult{StudentID: item.StudentID, Error: "not_enrolled"})
					continue
				}
				return err
			}

			updates := map[string]any{
				"attendance_record_status":    item.Status,
				"attendance_record_marked_at": now,
				"attendance_record_marked_by": markedBy,
			}
			if item.Note != nil {
				updates["attendance_record_note"] = *item.Note
			}
			if err := tx.Model(&recordModel.AttendanceRecordModel{}).
				Where("attendance_record_id = ?", rec.AttendanceRecordID).
				Updates(updates).Error; err != nil {
				return err
			}

			rec.AttendanceRecordStatus = item.Status
			rec.AttendanceRecordMarkedAt = &now
			rec.AttendanceRecordMarkedBy = &markedBy
			if item.Note != nil {
				rec.AttendanceRecordNote = item.Note
			}
			results = append(results, ItemResult{StudentID: item.StudentID, OK: true, Record: &rec})
			studentNames[item.StudentID] = rec.AttendanceRecordStudentNameSnapshot

			if item.Status == recordModel.RecordStatusAbsent ||
				(item.Status == recordModel.RecordStatusLate && s.Policy.CountLate) {
				evaluate[item.StudentID] = rec.AttendanceRecordID
			}
			// status present = kesempatan recheck; engine tidak pernah
			// auto-clear, jadi tidak ada kerja DB di jalur itu.
		}

		if err := RecomputeCounters(ctx, tx, sessionID); err != nil {
			return err
		}

		for studentID, recID := range evaluate {
			flags, err := s.Engine.Evaluate(ctx, tx, studentID, recID, sess.AttendanceSessionDate, s.Policy)
			if err != nil {
				return err
			}
			createdFlags = append(createdFlags, flags...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// fan-out & audit setelah commit — fire-and-forget
	for i := range createdFlags {
		f := &createdFlags[i]
		if s.Audit != nil {
			s.Audit.Record(ctx, auditService.Event{
				Kind:      auditModel.EventFlagRaised,
				ActorID:   &markedBy,
				StudentID: &f.StudentAbsenceFlagStudentID,
				FlagID:    &f.StudentAbsenceFlagID,
				Data:      map[string]any{"kind": f.StudentAbsenceFlagKind},
			})
		}
		if s.Dispatcher != nil {
			if _, err := s.Dispatcher.NotifyFlagRaised(ctx, f, studentNames[f.StudentAbsenceFlagStudentID]); err != nil {
				log.Printf("[WARN] flag %s: notifikasi raise gagal: %v", f.StudentAbsenceFlagID, err)
			}
		}
	}

	return results, nil
}

// RecomputeCounters hitung ulang 4 counter dari record set penuh —
// tidak pernah increment, supaya tidak ada drift.
func RecomputeCounters(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	type statusCount struct {
		Status recordModel.RecordStatus `gorm:"column:status"`
		N      int                      `gorm:"column:n"`
	}
	var counts []statusCount
	if err := tx.WithContext(ctx).
		Model(&recordModel.AttendanceRecordModel{}).
		Where("attendance_record_session_id = ?", sessionID).
		Select("attendance_record_status AS status, COUNT(*) AS n").
		Group("attendance_record_status").
		Scan(&counts).Error; err != nil {
		return err
	}

	total, present, absent, late, excused := 0, 0, 0, 0, 0
	for _, c := range counts {
		total += c.N
		switch c.Status {
		case recordModel.RecordStatusPresent:
			present = c.N
		case recordModel.RecordStatusAbsent:
			absent = c.N
		case recordModel.RecordStatusLate:
			late = c.N
		case recordModel.RecordStatusExcused:
			excused = c.N
		}
	}

	return tx.WithContext(ctx).
		Model(&sessionModel.AttendanceSessionModel{}).
		Where("attendance_session_id = ?", sessionID).
		Updates(map[string]any{
			"attendance_session_total_students": total,
			"attendance_session_present_count":  present,
			"attendance_session_absent_count":   absent,
			"attendance_session_late_count":     late,
			"attendance_session_excused_count":  excused,
		}).Error
}
