// file: internals/features/attendance/reports/route/staff_route.go
package route

import (
	reportCtrl "absensiku_backend/internals/features/attendance/reports/controller"

	"github.com/gofiber/fiber/v2"
)

func AttendanceReportStaffRoutes(r fiber.Router, ctl *reportCtrl.AttendanceReportController) {
	g := r.Group("/reports")
	g.Get("/class-statistics", ctl.ClassStatistics)
	g.Get("/student-history", ctl.StudentHistory)
	g.Get("/daily-report", ctl.DailyReport)
}
