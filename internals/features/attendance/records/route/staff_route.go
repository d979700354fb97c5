// file: internals/features/attendance/records/route/staff_route.go
package route

import (
	recordCtrl "absensiku_backend/internals/features/attendance/records/controller"

	"github.com/gofiber/fiber/v2"
)

// Jalur mark menempel di bawah /attendance-sessions karena record selalu
// diakses lewat sesinya.
func AttendanceRecordStaffRoutes(r fiber.Router, ctl *recordCtrl.AttendanceRecordController) {
	g := r.Group("/attendance-sessions")
	g.Post("/:id/mark", ctl.Mark)
	g.Post("/:id/bulk-mark", ctl.BulkMark)
}
