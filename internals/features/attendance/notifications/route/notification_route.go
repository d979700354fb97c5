// file: internals/features/attendance/notifications/route/notification_route.go
package route

import (
	notifCtrl "absensiku_backend/internals/features/attendance/notifications/controller"

	"github.com/gofiber/fiber/v2"
)

func AttendanceNotificationStaffRoutes(r fiber.Router, ctl *notifCtrl.AttendanceNotificationController) {
	g := r.Group("/notifications")
	g.Get("/", ctl.List)
	g.Post("/:id/mark-read", ctl.MarkRead)
}

// Callback transport — tanpa JWT, dipasang di group /api/internal.
func AttendanceNotificationInternalRoutes(r fiber.Router, ctl *notifCtrl.AttendanceNotificationController) {
	r.Post("/delivery-callback", ctl.DeliveryCallback)
}
