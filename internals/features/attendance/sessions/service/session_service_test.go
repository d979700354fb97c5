// file: internals/features/attendance/sessions/service/session_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
	auditService "absensiku_backend/internals/features/audit/service"
	"absensiku_backend/internals/testutil"
)

// 2026-01-05 jatuh hari Senin — anchor semua tanggal test.
var monday = testutil.Date(2026, time.January, 5)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	dispatcher := notifService.NewService(db, notifService.ConsoleTransport{})
	svc := NewService(db, dispatcher, auditService.NewRecorder(db), NewLockTable())
	t.Cleanup(dispatcher.Wait)
	return svc, db
}

type fixture struct {
	Class    *enrollModel.SchoolClassModel
	Students []*enrollModel.SchoolStudentModel
	SlotID   uuid.UUID
}

func seedClassWithRoster(t *testing.T, db *gorm.DB, names ...string) fixture {
	t.Helper()
	class := testutil.SeedClass(t, db, "Kelas 5A")
	fx := fixture{Class: class}
	for _, name := range names {
		st := testutil.SeedStudent(t, db, name)
		testutil.Enroll(t, db, class.SchoolClassID, st.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
		fx.Students = append(fx.Students, st)
	}
	slot := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Matematika")
	fx.SlotID = slot.TimetableSessionID
	return fx
}

func TestStartSeedsRosterAbsent(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Citra", "Agus", "Budi")
	teacherID := uuid.New()

	sess, created, err := svc.Start(context.Background(), fx.SlotID, monday, teacherID)
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, sessionModel.SessionStatusInProgress, sess.AttendanceSessionStatus)
	assert.Equal(t, 3, sess.AttendanceSessionTotalStudents)
	assert.Equal(t, 3, sess.AttendanceSessionAbsentCount)
	assert.Equal(t, 0, sess.AttendanceSessionPresentCount)
	assert.Equal(t, teacherID, sess.AttendanceSessionTeacherID)

	var records []recordModel.AttendanceRecordModel
	require.NoError(t, db.
		Where("attendance_record_session_id = ?", sess.AttendanceSessionID).
		Order("attendance_record_student_name_snapshot ASC").
		Find(&records).Error)
	require.Len(t, records, 3)
	assert.Equal(t, "Agus", records[0].AttendanceRecordStudentNameSnapshot)
	assert.Equal(t, "Budi", records[1].AttendanceRecordStudentNameSnapshot)
	assert.Equal(t, "Citra", records[2].AttendanceRecordStudentNameSnapshot)
	for _, r := range records {
		assert.Equal(t, recordModel.RecordStatusAbsent, r.AttendanceRecordStatus)
		assert.Nil(t, r.AttendanceRecordMarkedAt)
		assert.Nil(t, r.AttendanceRecordMarkedBy)
	}
}

func TestStartIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus", "Budi")

	first, created, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.AttendanceSessionID, second.AttendanceSessionID)

	var n int64
	require.NoError(t, db.Model(&recordModel.AttendanceRecordModel{}).
		Where("attendance_record_session_id = ?", first.AttendanceSessionID).
		Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestStartRejectsWrongWeekday(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus")

	tuesday := monday.AddDate(0, 0, 1)
	_, _, err := svc.Start(context.Background(), fx.SlotID, tuesday, uuid.New())
	require.ErrorIs(t, err, ErrInvalidSessionDate)
}

func TestStartUnknownSlot(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Start(context.Background(), uuid.New(), monday, uuid.New())
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func TestRosterFrozenAfterStart(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus", "Budi")

	sess, _, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)

	// pindahan masuk setelah sesi dibuat — tidak boleh nongol di roster
	late := testutil.SeedStudent(t, db, "Zul")
	testutil.Enroll(t, db, fx.Class.SchoolClassID, late.SchoolStudentID, testutil.Date(2026, time.January, 1), nil)

	_, records, err := svc.Roster(context.Background(), sess.AttendanceSessionID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCompleteTransitions(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus")

	sess, _, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), sess.AttendanceSessionID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, sessionModel.SessionStatusCompleted, done.AttendanceSessionStatus)
	require.NotNil(t, done.AttendanceSessionCompletedAt)

	_, err = svc.Complete(context.Background(), sess.AttendanceSessionID, uuid.New())
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Cancel(context.Background(), sess.AttendanceSessionID, uuid.New(), "salah tanggal")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRequiresInProgress(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus")

	sess, _, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)

	canceled, err := svc.Cancel(context.Background(), sess.AttendanceSessionID, uuid.New(), "guru berhalangan")
	require.NoError(t, err)
	assert.Equal(t, sessionModel.SessionStatusCanceled, canceled.AttendanceSessionStatus)
	require.NotNil(t, canceled.AttendanceSessionCancelReason)
	assert.Equal(t, "guru berhalangan", *canceled.AttendanceSessionCancelReason)

	_, err = svc.Cancel(context.Background(), sess.AttendanceSessionID, uuid.New(), "lagi")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Complete(context.Background(), sess.AttendanceSessionID, uuid.New())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelSlotMaterializesCanceledRow(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus", "Budi")

	sess, err := svc.CancelSlot(context.Background(), fx.SlotID, monday, uuid.New(), "libur nasional")
	require.NoError(t, err)
	assert.Equal(t, sessionModel.SessionStatusCanceled, sess.AttendanceSessionStatus)
	assert.Equal(t, 0, sess.AttendanceSessionTotalStudents)

	// occurrence yang sudah dibatalkan tidak bisa di-start ulang jadi baru
	existing, created, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sess.AttendanceSessionID, existing.AttendanceSessionID)
	assert.Equal(t, sessionModel.SessionStatusCanceled, existing.AttendanceSessionStatus)
}

func TestScheduleForDerivesScheduled(t *testing.T) {
	svc, db := newTestService(t)
	fx := seedClassWithRoster(t, db, "Agus")
	second := testutil.SeedSlot(t, db, fx.Class.SchoolClassID, 1, "Bahasa Indonesia")

	started, _, err := svc.Start(context.Background(), fx.SlotID, monday, uuid.New())
	require.NoError(t, err)

	entries, err := svc.ScheduleFor(context.Background(), fx.Class.SchoolClassID, monday)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	bySlot := map[uuid.UUID]ScheduleEntry{}
	for _, e := range entries {
		bySlotID := e.Slot.TimetableSessionID
		bySlot[bySlotID] = e
	}

	inProg := bySlot[fx.SlotID]
	assert.Equal(t, sessionModel.SessionStatusInProgress, inProg.Status)
	require.NotNil(t, inProg.Session)
	assert.Equal(t, started.AttendanceSessionID, inProg.Session.AttendanceSessionID)

	sched := bySlot[second.TimetableSessionID]
	assert.Equal(t, sessionModel.SessionStatusScheduled, sched.Status)
	assert.Nil(t, sched.Session)
}
