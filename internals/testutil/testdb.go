// file: internals/testutil/testdb.go
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "absensiku_backend/internals/databases"
	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
	timetableModel "absensiku_backend/internals/features/school/timetable/model"
)

// OpenDB membuka sqlite in-memory dgn skema penuh. Satu koneksi saja —
// tiap koneksi :memory: adalah database berbeda.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.MigrateAll(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Date: shorthand tanggal midnight-UTC utk seed & assert.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

/* ===============================
   Seed helpers
=================================*/

func SeedClass(t *testing.T, db *gorm.DB, name string) *enrollModel.SchoolClassModel {
	t.Helper()
	m := &enrollModel.SchoolClassModel{
		SchoolClassName: name,
		SchoolClassYear: "2025/2026",
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return m
}

func SeedStudent(t *testing.T, db *gorm.DB, name string) *enrollModel.SchoolStudentModel {
	t.Helper()
	m := &enrollModel.SchoolStudentModel{
		SchoolStudentName: name,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return m
}

func Enroll(t *testing.T, db *gorm.DB, classID, studentID uuid.UUID, joinedAt time.Time, leftAt *time.Time) {
	t.Helper()
	m := &enrollModel.ClassEnrollmentModel{
		ClassEnrollmentClassID:   classID,
		ClassEnrollmentStudentID: studentID,
		ClassEnrollmentJoinedAt:  joinedAt,
		ClassEnrollmentLeftAt:    leftAt,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
}

func LinkParent(t *testing.T, db *gorm.DB, studentID, parentUserID uuid.UUID, kind enrollModel.ParentRelationKind, primary bool) {
	t.Helper()
	m := &enrollModel.StudentParentRelationModel{
		StudentParentRelationStudentID:    studentID,
		StudentParentRelationParentUserID: parentUserID,
		StudentParentRelationKind:         kind,
		StudentParentRelationIsPrimary:    primary,
		StudentParentRelationIsActive:     true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed parent relation: %v", err)
	}
}

func SubscribeStaff(t *testing.T, db *gorm.DB, userID uuid.UUID, classID *uuid.UUID) {
	t.Helper()
	m := &enrollModel.StaffSummarySubscriptionModel{
		StaffSummarySubscriptionUserID:   userID,
		StaffSummarySubscriptionClassID:  classID,
		StaffSummarySubscriptionIsActive: true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed staff subscription: %v", err)
	}
}

// SeedSlot bikin slot timetable utk kelas pada hari ISO tertentu.
func SeedSlot(t *testing.T, db *gorm.DB, classID uuid.UUID, dayOfWeek int, subject string) *timetableModel.TimetableSessionModel {
	t.Helper()
	m := &timetableModel.TimetableSessionModel{
		TimetableSessionClassID:   classID,
		TimetableSessionSubject:   subject,
		TimetableSessionTeacherID: uuid.New(),
		TimetableSessionRoom:      "R-101",
		TimetableSessionDayOfWeek: dayOfWeek,
		TimetableSessionStartsAt:  "07:30",
		TimetableSessionEndsAt:    "09:00",
		TimetableSessionPosition:  1,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return m
}
