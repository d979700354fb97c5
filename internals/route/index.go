// file: internals/route/index.go
package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"absensiku_backend/internals/configs"
	authMiddleware "absensiku_backend/internals/middlewares/auth"

	flagCtrl "absensiku_backend/internals/features/attendance/flags/controller"
	flagRoute "absensiku_backend/internals/features/attendance/flags/route"
	flagService "absensiku_backend/internals/features/attendance/flags/service"
	notifCtrl "absensiku_backend/internals/features/attendance/notifications/controller"
	notifRoute "absensiku_backend/internals/features/attendance/notifications/route"
	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	recordCtrl "absensiku_backend/internals/features/attendance/records/controller"
	recordRoute "absensiku_backend/internals/features/attendance/records/route"
	recordService "absensiku_backend/internals/features/attendance/records/service"
	reportCtrl "absensiku_backend/internals/features/attendance/reports/controller"
	reportRoute "absensiku_backend/internals/features/attendance/reports/route"
	reportService "absensiku_backend/internals/features/attendance/reports/service"
	sessCtrl "absensiku_backend/internals/features/attendance/sessions/controller"
	sessRoute "absensiku_backend/internals/features/attendance/sessions/route"
	sessService "absensiku_backend/internals/features/attendance/sessions/service"
	auditService "absensiku_backend/internals/features/audit/service"
)

// SetupRoutes merakit seluruh service graph lalu memasang route group.
// Service dibangun sekali di sini karena dispatcher, lock table, dan
// policy dipakai bersama lintas controller.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// ===================== SERVICES =====================
	audit := auditService.NewRecorder(db)
	dispatcher := notifService.NewService(db, notifService.ConsoleTransport{})
	engine := flagService.NewEngine(db, dispatcher, audit)
	locks := sessService.NewLockTable()

	sessions := sessService.NewService(db, dispatcher, audit, locks)
	records := recordService.NewService(db, locks, engine, dispatcher, audit, flagService.PolicyFromEnv())
	reports := reportService.NewService(db)

	// ===================== STAFF (/api/a, JWT) =====================
	log.Println("[INFO] Setting up STAFF group...")
	staff := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
		}),
	)

	sessRoute.AttendanceSessionStaffRoutes(staff, sessCtrl.NewAttendanceSessionController(sessions))
	recordRoute.AttendanceRecordStaffRoutes(staff, recordCtrl.NewAttendanceRecordController(records))
	flagRoute.StudentAbsenceFlagStaffRoutes(staff, flagCtrl.NewStudentAbsenceFlagController(engine))

	notifController := notifCtrl.NewAttendanceNotificationController(dispatcher)
	notifRoute.AttendanceNotificationStaffRoutes(staff, notifController)
	reportRoute.AttendanceReportStaffRoutes(staff, reportCtrl.NewAttendanceReportController(reports))

	// ===================== INTERNAL (/api/internal) =====================
	// Callback transport: tanpa JWT user, dipanggil sistem pengirim.
	log.Println("[INFO] Setting up INTERNAL group...")
	internal := app.Group("/api/internal")
	notifRoute.AttendanceNotificationInternalRoutes(internal, notifController)
}
