// file: internals/features/attendance/sessions/route/staff_route.go
package route

import (
	sessCtrl "absensiku_backend/internals/features/attendance/sessions/controller"

	"github.com/gofiber/fiber/v2"
)

func AttendanceSessionStaffRoutes(r fiber.Router, ctl *sessCtrl.AttendanceSessionController) {
	g := r.Group("/attendance-sessions")
	g.Post("/start", ctl.Start)
	g.Post("/cancel-slot", ctl.CancelSlot)
	g.Get("/schedule", ctl.Schedule)
	g.Post("/:id/complete", ctl.Complete)
	g.Post("/:id/cancel", ctl.Cancel)
	g.Get("/:id/students", ctl.Students)
}
