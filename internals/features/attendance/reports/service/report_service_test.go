// file: internals/features/attendance/reports/service/report_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	flagService "absensiku_backend/internals/features/attendance/flags/service"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	recordService "absensiku_backend/internals/features/attendance/records/service"
	sessionService "absensiku_backend/internals/features/attendance/sessions/service"
	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
	auditService "absensiku_backend/internals/features/audit/service"
	"absensiku_backend/internals/testutil"
)

var monday = testutil.Date(2026, time.January, 5)

type reportEnv struct {
	DB       *gorm.DB
	Reports  *Service
	Sessions *sessionService.Service
	Records  *recordService.Service
	Class    *enrollModel.SchoolClassModel
	Students []*enrollModel.SchoolStudentModel
	SlotIDs  []uuid.UUID
	Teacher  uuid.UUID
}

// Dua hari sesi: Senin semua hadir kecuali satu absen, Selasa si absen
// telat. Senin diselesaikan, Selasa dibiarkan jalan.
func newReportEnv(t *testing.T) *reportEnv {
	t.Helper()
	db := testutil.OpenDB(t)

	audit := auditService.NewRecorder(db)
	dispatcher := notifService.NewService(db, notifService.ConsoleTransport{})
	engine := flagService.NewEngine(db, dispatcher, audit)
	locks := sessionService.NewLockTable()
	t.Cleanup(dispatcher.Wait)

	env := &reportEnv{
		DB:       db,
		Reports:  NewService(db),
		Sessions: sessionService.NewService(db, dispatcher, audit, locks),
		Records: recordService.NewService(db, locks, engine, dispatcher, audit,
			flagService.DefaultPolicy()),
		Teacher: uuid.New(),
	}

	env.Class = testutil.SeedClass(t, db, "Kelas 5A")
	for _, name := range []string{"Agus", "Budi"} {
		st := testutil.SeedStudent(t, db, name)
		testutil.Enroll(t, db, env.Class.SchoolClassID, st.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
		env.Students = append(env.Students, st)
	}
	for dow := 1; dow <= 2; dow++ {
		slot := testutil.SeedSlot(t, db, env.Class.SchoolClassID, dow, "Matematika")
		env.SlotIDs = append(env.SlotIDs, slot.TimetableSessionID)
	}

	ctx := context.Background()

	// Senin
	s1, _, err := env.Sessions.Start(ctx, env.SlotIDs[0], monday, env.Teacher)
	require.NoError(t, err)
	_, err = env.Records.BulkSetStatus(ctx, s1.AttendanceSessionID, []recordService.MarkItem{
		{StudentID: env.Students[0].SchoolStudentID, Status: recordModel.RecordStatusPresent},
		{StudentID: env.Students[1].SchoolStudentID, Status: recordModel.RecordStatusAbsent},
	}, env.Teacher)
	require.NoError(t, err)
	_, err = env.Sessions.Complete(ctx, s1.AttendanceSessionID, env.Teacher)
	require.NoError(t, err)

	// Selasa — masih in_progress, tetap kena hitung
	s2, _, err := env.Sessions.Start(ctx, env.SlotIDs[1], monday.AddDate(0, 0, 1), env.Teacher)
	require.NoError(t, err)
	_, err = env.Records.BulkSetStatus(ctx, s2.AttendanceSessionID, []recordService.MarkItem{
		{StudentID: env.Students[0].SchoolStudentID, Status: recordModel.RecordStatusPresent},
		{StudentID: env.Students[1].SchoolStudentID, Status: recordModel.RecordStatusLate},
	}, env.Teacher)
	require.NoError(t, err)

	return env
}

func TestClassStatistics(t *testing.T) {
	env := newReportEnv(t)

	stats, err := env.Reports.ClassStatistics(context.Background(), env.Class.SchoolClassID,
		monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.SessionCount)
	assert.Equal(t, 4, stats.TotalStudents)
	assert.Equal(t, 2, stats.PresentCount)
	assert.Equal(t, 1, stats.AbsentCount)
	assert.Equal(t, 1, stats.LateCount)
	assert.Equal(t, 0, stats.ExcusedCount)
}

func TestClassStatisticsRangeBoundsInclusive(t *testing.T) {
	env := newReportEnv(t)

	// rentang persis satu hari — sesi Selasa tidak ikut
	stats, err := env.Reports.ClassStatistics(context.Background(), env.Class.SchoolClassID, monday, monday)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.SessionCount)
	assert.Equal(t, 1, stats.PresentCount)
	assert.Equal(t, 1, stats.AbsentCount)
}

func TestClassStatisticsExcludesCanceled(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()

	// slot Rabu dibatalkan — tidak boleh mempengaruhi agregat
	slot := testutil.SeedSlot(t, env.DB, env.Class.SchoolClassID, 3, "Olahraga")
	_, err := env.Sessions.CancelSlot(ctx, slot.TimetableSessionID, monday.AddDate(0, 0, 2), env.Teacher, "lapangan banjir")
	require.NoError(t, err)

	stats, err := env.Reports.ClassStatistics(ctx, env.Class.SchoolClassID, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.SessionCount)
}

func TestStudentHistoryChronological(t *testing.T) {
	env := newReportEnv(t)
	target := env.Students[1] // Budi: absen lalu telat

	history, err := env.Reports.StudentHistory(context.Background(), target.SchoolStudentID,
		monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)

	assert.Equal(t, target.SchoolStudentID, history.StudentID)
	require.Len(t, history.Records, 2)
	assert.Equal(t, "absent", history.Records[0].Status)
	assert.Equal(t, "late", history.Records[1].Status)
	assert.Equal(t, "Matematika", history.Records[0].Subject)
	assert.True(t, history.Records[0].SessionDate.Before(history.Records[1].SessionDate))
	assert.Empty(t, history.Flags) // dua kejadian belum menyentuh ambang
}

func TestDailyReport(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()

	rows, err := env.Reports.DailyReport(ctx, monday, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, env.Class.SchoolClassID, rows[0].ClassID)
	assert.Equal(t, "Matematika", rows[0].Subject)
	assert.Equal(t, "completed", rows[0].Status)
	assert.Equal(t, 2, rows[0].Total)
	assert.Equal(t, 1, rows[0].PresentCount)
	assert.Equal(t, 1, rows[0].AbsentCount)

	// filter kelas lain → kosong
	other := uuid.New()
	rows, err = env.Reports.DailyReport(ctx, monday, &other)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
