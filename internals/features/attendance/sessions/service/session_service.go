// file: internals/features/attendance/sessions/service/session_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "absensiku_backend/internals/helpers"

	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	auditModel "absensiku_backend/internals/features/audit/model"
	auditService "absensiku_backend/internals/features/audit/service"
	enrollService "absensiku_backend/internals/features/school/enrollment/service"
	timetableModel "absensiku_backend/internals/features/school/timetable/model"
)

var (
	ErrSlotNotFound       = errors.New("slot timetable tidak ditemukan")
	ErrSessionNotFound    = errors.New("sesi tidak ditemukan")
	ErrInvalidSessionDate = errors.New("tanggal tidak cocok dgn day-of-week slot")
	ErrInvalidTransition  = errors.New("transisi status sesi tidak valid")
)

/* =========================================
   Session Materializer
   SCHEDULED implisit (slot ada, baris sesi belum) → Start bikin baris
   in_progress + seed record absent per siswa snapshot. Idempoten per
   (slot, date) — dijaga unique index, bukan cek manual doang.
   ========================================= */

type Service struct {
	DB         *gorm.DB
	Resolver   *enrollService.Resolver
	Dispatcher *notifService.Service
	Audit      *auditService.Recorder
	Locks      *LockTable
}

func NewService(db *gorm.DB, dispatcher *notifService.Service, audit *auditService.Recorder, locks *LockTable) *Service {
	return &Service{
		DB:         db,
		Resolver:   enrollService.NewResolver(db),
		Dispatcher: dispatcher,
		Audit:      audit,
		Locks:      locks,
	}
}

// DateOnly menormalkan tanggal ke midnight UTC supaya equality & unique
// index konsisten lintas driver.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

/* ===============================
   Start — idempoten
=================================*/

// Start materialisasi sesi utk (slot, date). Kalau sudah ada → balikin
// apa adanya tanpa re-seeding. Snapshot enrolment beku dipakai utk
// seluruh umur sesi ("innocent until marked present": default absent).
func (s *Service) Start(ctx context.Context, timetableSessionID uuid.UUID, date time.Time, teacherID uuid.UUID) (*sessionModel.AttendanceSessionModel, bool, error) {
	date = DateOnly(date)

	var slot timetableModel.TimetableSessionModel
	if err := s.DB.WithContext(ctx).
		First(&slot, "timetable_session_id = ?", timetableSessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrSlotNotFound
		}
		return nil, false, err
	}
	if timetableModel.ISOWeekday(date) != slot.TimetableSessionDayOfWeek {
		return nil, false, ErrInvalidSessionDate
	}

	unlock := s.Locks.Lock(timetableSessionID.String() + "|" + date.Format("2006-01-02"))
	defer unlock()

	// sudah ada? idempoten, tidak diubah
	if existing, err := s.bySlotDate(ctx, timetableSessionID, date); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// snapshot roster — gagal di sini fatal utk pembuatan sesi, tidak
	// boleh ada sesi parsial
	roster, err := s.Resolver.Resolve(ctx, slot.TimetableSessionClassID, date)
	if err != nil {
		return nil, false, err
	}

	sess := sessionModel.AttendanceSessionModel{
		AttendanceSessionTimetableSessionID: timetableSessionID,
		AttendanceSessionDate:               date,
		AttendanceSessionClassID:            slot.TimetableSessionClassID,
		AttendanceSessionTeacherID:          teacherID,
		AttendanceSessionStatus:             sessionModel.SessionStatusInProgress,
		AttendanceSessionTotalStudents:      len(roster),
		AttendanceSessionAbsentCount:        len(roster),
		AttendanceSessionStartedAt:          time.Now(),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sess).Error; err != nil {
			return err
		}
		if len(roster) == 0 {
			return nil
		}
		records := make([]recordModel.AttendanceRecordModel, 0, len(roster))
		for _, st := range roster {
			records = append(records, recordModel.AttendanceRecordModel{
				AttendanceRecordSessionID:           sess.AttendanceSessionID,
				AttendanceRecordStudentID:           st.StudentID,
				AttendanceRecordStatus:              recordModel.RecordStatusAbsent,
				AttendanceRecordStudentNameSnapshot: st.StudentName,
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		if helper.IsDuplicateKey(err) {
			// kalah race start dari device lain — ambil punya dia
			existing, ferr := s.bySlotDate(ctx, timetableSessionID, date)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, auditService.Event{
			Kind:      auditModel.EventSessionStarted,
			ActorID:   &teacherID,
			SessionID: &sess.AttendanceSessionID,
			Data: map[string]any{
				"class_id": sess.AttendanceSessionClassID,
				"date":     date.Format("2006-01-02"),
				"total":    len(roster),
			},
		})
	}
	return &sess, true, nil
}

func (s *Service) bySlotDate(ctx context.Context, timetableSessionID uuid.UUID, date time.Time) (*sessionModel.AttendanceSessionModel, error) {
	var sess sessionModel.AttendanceSessionModel
	err := s.DB.WithContext(ctx).
		First(&sess, "attendance_session_timetable_session_id = ? AND attendance_session_date = ?",
			timetableSessionID, date).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Service) ByID(ctx context.Context, sessionID uuid.UUID) (*sessionModel.AttendanceSessionModel, error) {
	var sess sessionModel.AttendanceSessionModel
	err := s.DB.WithContext(ctx).First(&sess, "attendance_session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

/* ===============================
   Complete / Cancel
=================================*/

// Complete membekukan record set (mark selanjutnya ditolak ledger) dan
// emit event rekap. Retry aman hanya selama masih in_progress.
func (s *Service) Complete(ctx context.Context, sessionID, actorID uuid.UUID) (*sessionModel.AttendanceSessionModel, error) {
	unlock := s.Locks.Lock(sessionID.String())
	defer unlock()

	var sess *sessionModel.AttendanceSessionModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur sessionModel.AttendanceSessionModel
		if err := tx.First(&cur, "attendance_session_id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if cur.AttendanceSessionStatus != sessionModel.SessionStatusInProgress {
			return ErrInvalidTransition
		}
		now := time.Now()
		if err := tx.Model(&sessionModel.AttendanceSessionModel{}).
			Where("attendance_session_id = ?", sessionID).
			Updates(map[string]any{
				"attendance_session_status":       sessionModel.SessionStatusCompleted,
				"attendance_session_completed_at": now,
			}).Error; err != nil {
			return err
		}
		cur.AttendanceSessionStatus = sessionModel.SessionStatusCompleted
		cur.AttendanceSessionCompletedAt = &now
		sess = &cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, auditService.Event{
			Kind:      auditModel.EventSessionCompleted,
			ActorID:   &actorID,
			SessionID: &sess.AttendanceSessionID,
			Data: map[string]any{
				"present": sess.AttendanceSessionPresentCount,
				"absent":  sess.AttendanceSessionAbsentCount,
				"late":    sess.AttendanceSessionLateCount,
				"excused": sess.AttendanceSessionExcusedCount,
			},
		})
	}
	if s.Dispatcher != nil {
		// pembuatan baris notifikasi saja; kirim ke transport async
		if _, err := s.Dispatcher.NotifySessionCompleted(ctx, sess); err != nil {
			return sess, nil // kegagalan notifikasi tidak membatalkan complete
		}
	}
	return sess, nil
}

// Cancel sesi yang sudah berjalan.
func (s *Service) Cancel(ctx context.Context, sessionID, actorID uuid.UUID, reason string) (*sessionModel.AttendanceSessionModel, error) {
	unlock := s.Locks.Lock(sessionID.String())
	defer unlock()

	var sess *sessionModel.AttendanceSessionModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur sessionModel.AttendanceSessionModel
		if err := tx.First(&cur, "attendance_session_id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if cur.AttendanceSessionStatus != sessionModel.SessionStatusInProgress {
			return ErrInvalidTransition
		}
		now := time.Now()
		if err := tx.Model(&sessionModel.AttendanceSessionModel{}).
			Where("attendance_session_id = ?", sessionID).
			Updates(map[string]any{
				"attendance_session_status":        sessionModel.SessionStatusCanceled,
				"attendance_session_canceled_at":   now,
				"attendance_session_cancel_reason": reason,
			}).Error; err != nil {
			return err
		}
		cur.AttendanceSessionStatus = sessionModel.SessionStatusCanceled
		cur.AttendanceSessionCanceledAt = &now
		cur.AttendanceSessionCancelReason = &reason
		sess = &cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, auditService.Event{
			Kind:      auditModel.EventSessionCanceled,
			ActorID:   &actorID,
			SessionID: &sess.AttendanceSessionID,
			Data:      map[string]any{"reason": reason},
		})
	}
	return sess, nil
}

// CancelSlot membatalkan occurrence yang belum pernah di-start (state
// scheduled implisit) dgn langsung materialisasi baris canceled —
// class dibatalkan sebelum absensi dibuka.
func (s *Service) CancelSlot(ctx context.Context, timetableSessionID uuid.UUID, date time.Time, actorID uuid.UUID, reason string) (*sessionModel.AttendanceSessionModel, error) {
	date = DateOnly(date)

	var slot timetableModel.TimetableSessionModel
	if err := s.DB.WithContext(ctx).
		First(&slot, "timetable_session_id = ?", timetableSessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if timetableModel.ISOWeekday(date) != slot.TimetableSessionDayOfWeek {
		return nil, ErrInvalidSessionDate
	}

	unlock := s.Locks.Lock(timetableSessionID.String() + "|" + date.Format("2006-01-02"))
	defer unlock()

	if existing, err := s.bySlotDate(ctx, timetableSessionID, date); err == nil {
		if existing.AttendanceSessionStatus == sessionModel.SessionStatusInProgress {
			return s.Cancel(ctx, existing.AttendanceSessionID, actorID, reason)
		}
		return nil, ErrInvalidTransition
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	sess := sessionModel.AttendanceSessionModel{
		AttendanceSessionTimetableSessionID: timetableSessionID,
		AttendanceSessionDate:               date,
		AttendanceSessionClassID:            slot.TimetableSessionClassID,
		AttendanceSessionTeacherID:          actorID,
		AttendanceSessionStatus:             sessionModel.SessionStatusCanceled,
		AttendanceSessionStartedAt:          now,
		AttendanceSessionCanceledAt:         &now,
		AttendanceSessionCancelReason:       &reason,
	}
	if err := s.DB.WithContext(ctx).Create(&sess).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, auditService.Event{
			Kind:      auditModel.EventSessionCanceled,
			ActorID:   &actorID,
			SessionID: &sess.AttendanceSessionID,
			Data:      map[string]any{"reason": reason, "never_started": true},
		})
	}
	return &sess, nil
}

/* ===============================
   Read paths
=================================*/

// Roster: record set beku + status terkini per siswa.
func (s *Service) Roster(ctx context.Context, sessionID uuid.UUID) (*sessionModel.AttendanceSessionModel, []recordModel.AttendanceRecordModel, error) {
	sess, err := s.ByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	var records []recordModel.AttendanceRecordModel
	if err := s.DB.WithContext(ctx).
		Where("attendance_record_session_id = ?", sessionID).
		Order("attendance_record_student_name_snapshot ASC, attendance_record_student_id ASC").
		Find(&records).Error; err != nil {
		return nil, nil, err
	}
	return sess, records, nil
}

// ScheduleEntry: satu slot di jadwal hari itu + status turunannya.
// Slot tanpa baris sesi berstatus scheduled — tidak pernah dipersist
// (hindari row growth utk slot yang tidak pernah di-start).
type ScheduleEntry struct {
	Slot    timetableModel.TimetableSessionModel `json:"slot"`
	Status  sessionModel.SessionStatus           `json:"status"`
	Session *sessionModel.AttendanceSessionModel `json:"session,omitempty"`
}

func (s *Service) ScheduleFor(ctx context.Context, classID uuid.UUID, date time.Time) ([]ScheduleEntry, error) {
	date = DateOnly(date)

	var slots []timetableModel.TimetableSessionModel
	if err := s.DB.WithContext(ctx).
		Where("timetable_session_class_id = ? AND timetable_session_day_of_week = ?",
			classID, timetableModel.ISOWeekday(date)).
		Order("timetable_session_position ASC, timetable_session_starts_at ASC").
		Find(&slots).Error; err != nil {
		return nil, err
	}

	entries := make([]ScheduleEntry, 0, len(slots))
	for _, slot := range slots {
		entry := ScheduleEntry{Slot: slot, Status: sessionModel.SessionStatusScheduled}
		if sess, err := s.bySlotDate(ctx, slot.TimetableSessionID, date); err == nil {
			entry.Status = sess.AttendanceSessionStatus
			entry.Session = sess
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
