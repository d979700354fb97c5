// file: internals/features/attendance/records/service/record_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	flagService "absensiku_backend/internals/features/attendance/flags/service"
	notifModel "absensiku_backend/internals/features/attendance/notifications/model"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	sessionService "absensiku_backend/internals/features/attendance/sessions/service"
	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
	auditService "absensiku_backend/internals/features/audit/service"
	"absensiku_backend/internals/testutil"
)

var monday = testutil.Date(2026, time.January, 5) // Senin

type testEnv struct {
	DB         *gorm.DB
	Records    *Service
	Sessions   *sessionService.Service
	Dispatcher *notifService.Service
	Class      *enrollModel.SchoolClassModel
	Students   []*enrollModel.SchoolStudentModel
	Slots      []uuid.UUID // Senin, Selasa, Rabu
	TeacherID  uuid.UUID
}

func newEnv(t *testing.T, studentNames ...string) *testEnv {
	t.Helper()
	db := testutil.OpenDB(t)

	audit := auditService.NewRecorder(db)
	dispatcher := notifService.NewService(db, notifService.ConsoleTransport{})
	engine := flagService.NewEngine(db, dispatcher, audit)
	locks := sessionService.NewLockTable()

	env := &testEnv{
		DB:         db,
		Sessions:   sessionService.NewService(db, dispatcher, audit, locks),
		Records:    NewService(db, locks, engine, dispatcher, audit, flagService.DefaultPolicy()),
		Dispatcher: dispatcher,
		TeacherID:  uuid.New(),
	}
	t.Cleanup(dispatcher.Wait)

	env.Class = testutil.SeedClass(t, db, "Kelas 5A")
	for _, name := range studentNames {
		st := testutil.SeedStudent(t, db, name)
		testutil.Enroll(t, db, env.Class.SchoolClassID, st.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
		env.Students = append(env.Students, st)
	}
	for dow := 1; dow <= 3; dow++ {
		slot := testutil.SeedSlot(t, db, env.Class.SchoolClassID, dow, "Matematika")
		env.Slots = append(env.Slots, slot.TimetableSessionID)
	}
	return env
}

// startSession buka sesi utk hari ke-n (0=Senin).
func (env *testEnv) startSession(t *testing.T, day int) *sessionModel.AttendanceSessionModel {
	t.Helper()
	sess, _, err := env.Sessions.Start(context.Background(), env.Slots[day], monday.AddDate(0, 0, day), env.TeacherID)
	require.NoError(t, err)
	return sess
}

func (env *testEnv) reloadSession(t *testing.T, id uuid.UUID) *sessionModel.AttendanceSessionModel {
	t.Helper()
	var sess sessionModel.AttendanceSessionModel
	require.NoError(t, env.DB.First(&sess, "attendance_session_id = ?", id).Error)
	return &sess
}

func TestMarkPresentUpdatesCounters(t *testing.T) {
	env := newEnv(t, "Agus", "Budi", "Citra")
	sess := env.startSession(t, 0)

	rec, err := env.Records.SetStatus(context.Background(), sess.AttendanceSessionID,
		env.Students[0].SchoolStudentID, recordModel.RecordStatusPresent, env.TeacherID, nil)
	require.NoError(t, err)
	assert.Equal(t, recordModel.RecordStatusPresent, rec.AttendanceRecordStatus)
	require.NotNil(t, rec.AttendanceRecordMarkedAt)
	require.NotNil(t, rec.AttendanceRecordMarkedBy)
	assert.Equal(t, env.TeacherID, *rec.AttendanceRecordMarkedBy)

	got := env.reloadSession(t, sess.AttendanceSessionID)
	assert.Equal(t, 3, got.AttendanceSessionTotalStudents)
	assert.Equal(t, 1, got.AttendanceSessionPresentCount)
	assert.Equal(t, 2, got.AttendanceSessionAbsentCount)
}

func TestCountersRecomputedNotIncremented(t *testing.T) {
	env := newEnv(t, "Agus", "Budi")
	sess := env.startSession(t, 0)
	ctx := context.Background()
	studentID := env.Students[0].SchoolStudentID

	// re-mark berkali-kali — counter hasil recompute, bukan akumulasi
	for _, st := range []recordModel.RecordStatus{
		recordModel.RecordStatusPresent,
		recordModel.RecordStatusPresent,
		recordModel.RecordStatusLate,
		recordModel.RecordStatusExcused,
	} {
		_, err := env.Records.SetStatus(ctx, sess.AttendanceSessionID, studentID, st, env.TeacherID, nil)
		require.NoError(t, err)
	}

	got := env.reloadSession(t, sess.AttendanceSessionID)
	sum := got.AttendanceSessionPresentCount + got.AttendanceSessionAbsentCount +
		got.AttendanceSessionLateCount + got.AttendanceSessionExcusedCount
	assert.Equal(t, got.AttendanceSessionTotalStudents, sum)
	assert.Equal(t, 1, got.AttendanceSessionExcusedCount)
	assert.Equal(t, 1, got.AttendanceSessionAbsentCount)
	assert.Equal(t, 0, got.AttendanceSessionPresentCount)
}

func TestBulkMarkPartialFailure(t *testing.T) {
	env := newEnv(t, "Agus", "Budi", "Citra")
	sess := env.startSession(t, 0)

	note := "izin dokter"
	items := []MarkItem{
		{StudentID: env.Students[0].SchoolStudentID, Status: recordModel.RecordStatusPresent},
		{StudentID: uuid.New(), Status: recordModel.RecordStatusPresent}, // bukan anggota roster
		{StudentID: env.Students[1].SchoolStudentID, Status: recordModel.RecordStatus("hadir")}, // typo status
		{StudentID: env.Students[2].SchoolStudentID, Status: recordModel.RecordStatusExcused, Note: &note},
	}

	results, err := env.Records.BulkSetStatus(context.Background(), sess.AttendanceSessionID, items, env.TeacherID)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, "not_enrolled", results[1].Error)
	assert.False(t, results[2].OK)
	assert.Equal(t, "invalid_status", results[2].Error)
	assert.True(t, results[3].OK)
	require.NotNil(t, results[3].Record)
	require.NotNil(t, results[3].Record.AttendanceRecordNote)
	assert.Equal(t, note, *results[3].Record.AttendanceRecordNote)

	// item gagal tidak membatalkan item sukses
	got := env.reloadSession(t, sess.AttendanceSessionID)
	assert.Equal(t, 1, got.AttendanceSessionPresentCount)
	assert.Equal(t, 1, got.AttendanceSessionExcusedCount)
	assert.Equal(t, 1, got.AttendanceSessionAbsentCount) // Budi masih default
}

func TestMarkRequiresOpenSession(t *testing.T) {
	env := newEnv(t, "Agus")
	sess := env.startSession(t, 0)
	ctx := context.Background()

	_, err := env.Sessions.Complete(ctx, sess.AttendanceSessionID, env.TeacherID)
	require.NoError(t, err)

	_, err = env.Records.SetStatus(ctx, sess.AttendanceSessionID,
		env.Students[0].SchoolStudentID, recordModel.RecordStatusPresent, env.TeacherID, nil)
	require.ErrorIs(t, err, ErrSessionNotOpen)
}

func TestMarkUnknownSession(t *testing.T) {
	env := newEnv(t, "Agus")
	_, err := env.Records.SetStatus(context.Background(), uuid.New(),
		env.Students[0].SchoolStudentID, recordModel.RecordStatusPresent, env.TeacherID, nil)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

// Skenario lengkap: tiga hari absen berturut-turut → dua flag (window +
// consecutive) → notifikasi ke wali.
func TestAbsencePatternEndToEnd(t *testing.T) {
	env := newEnv(t, "Agus", "Budi", "Citra")
	ctx := context.Background()

	target := env.Students[0]
	parentID := uuid.New()
	testutil.LinkParent(t, env.DB, target.SchoolStudentID, parentID, enrollModel.ParentRelationMother, true)

	for day := 0; day < 3; day++ {
		sess := env.startSession(t, day)

		// dua teman sekelas hadir, target dibiarkan absent (default)
		items := []MarkItem{
			{StudentID: env.Students[1].SchoolStudentID, Status: recordModel.RecordStatusPresent},
			{StudentID: env.Students[2].SchoolStudentID, Status: recordModel.RecordStatusPresent},
			{StudentID: target.SchoolStudentID, Status: recordModel.RecordStatusAbsent},
		}
		_, err := env.Records.BulkSetStatus(ctx, sess.AttendanceSessionID, items, env.TeacherID)
		require.NoError(t, err)

		_, err = env.Sessions.Complete(ctx, sess.AttendanceSessionID, env.TeacherID)
		require.NoError(t, err)
	}
	env.Dispatcher.Wait()

	var flags []flagModel.StudentAbsenceFlagModel
	require.NoError(t, env.DB.
		Where("student_absence_flag_student_id = ?", target.SchoolStudentID).
		Find(&flags).Error)
	require.Len(t, flags, 2)
	kinds := map[flagModel.FlagKind]bool{}
	for _, f := range flags {
		assert.False(t, f.StudentAbsenceFlagIsCleared)
		kinds[f.StudentAbsenceFlagKind] = true
	}
	assert.True(t, kinds[flagModel.FlagKindWindowThreshold])
	assert.True(t, kinds[flagModel.FlagKindConsecutive])

	// fan-out: satu notifikasi raise per flag utk si ibu
	var notifs []notifModel.AttendanceNotificationModel
	require.NoError(t, env.DB.
		Where("attendance_notification_recipient_user_id = ?", parentID).
		Where("attendance_notification_type = ?", notifModel.NotificationTypeFlagRaised).
		Find(&notifs).Error)
	assert.Len(t, notifs, 2)
	for _, n := range notifs {
		assert.Equal(t, notifModel.NotificationStatusSent, n.AttendanceNotificationStatus)
		require.NotNil(t, n.AttendanceNotificationDeliveryID)
	}
}
