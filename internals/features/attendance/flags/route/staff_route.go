// file: internals/features/attendance/flags/route/staff_route.go
package route

import (
	flagCtrl "absensiku_backend/internals/features/attendance/flags/controller"

	"github.com/gofiber/fiber/v2"
)

func StudentAbsenceFlagStaffRoutes(r fiber.Router, ctl *flagCtrl.StudentAbsenceFlagController) {
	g := r.Group("/absence-flags")
	g.Get("/pending", ctl.ListPending)
	g.Post("/:id/clear", ctl.Clear)
}
