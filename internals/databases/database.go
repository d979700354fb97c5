package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"absensiku_backend/internals/configs"
	auditModel "absensiku_backend/internals/features/audit/model"
	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	notifModel "absensiku_backend/internals/features/attendance/notifications/model"
	recordModel "absensiku_backend/internals/features/attendance/records/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
	timetableModel "absensiku_backend/internals/features/school/timetable/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  configs.DatabaseDSN(),
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate menjalankan AutoMigrate + index yang tidak bisa dinyatakan lewat tag.
func Migrate() {
	if err := MigrateAll(DB); err != nil {
		log.Fatalf("❌ auto migrate gagal: %v", err)
	}
	log.Println("✅ Migrasi selesai.")
}

// MigrateAll dipakai juga oleh test setup (sqlite in-memory).
func MigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&timetableModel.TimetableSessionModel{},
		&enrollModel.SchoolClassModel{},
		&enrollModel.SchoolStudentModel{},
		&enrollModel.ClassEnrollmentModel{},
		&enrollModel.StudentParentRelationModel{},
		&enrollModel.StaffSummarySubscriptionModel{},
		&sessionModel.AttendanceSessionModel{},
		&recordModel.AttendanceRecordModel{},
		&flagModel.StudentAbsenceFlagModel{},
		&notifModel.AttendanceNotificationModel{},
		&auditModel.ActivityEventModel{},
	); err != nil {
		return err
	}

	// Satu flag aktif per (student, kind); duplikat ketahan di level index,
	// bukan check-then-insert. Partial index valid di postgres & sqlite.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_student_absence_flags_active
		ON student_absence_flags (student_absence_flag_student_id, student_absence_flag_kind)
		WHERE student_absence_flag_is_cleared = FALSE
	`).Error
}
