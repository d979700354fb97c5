// file: internals/features/attendance/sessions/controller/attendance_session_controller_test.go
package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	notifService "absensiku_backend/internals/features/attendance/notifications/service"
	"absensiku_backend/internals/features/attendance/sessions/controller"
	sessRoute "absensiku_backend/internals/features/attendance/sessions/route"
	sessService "absensiku_backend/internals/features/attendance/sessions/service"
	auditService "absensiku_backend/internals/features/audit/service"
	"absensiku_backend/internals/testutil"
)

var monday = testutil.Date(2026, time.January, 5)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newTestApp: app tanpa middleware JWT — identitas user disuntik langsung
// ke Locals, persis yang dilakukan AuthJWT setelah verifikasi.
func newTestApp(t *testing.T, userID uuid.UUID) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	dispatcher := notifService.NewService(db, notifService.ConsoleTransport{})
	svc := sessService.NewService(db, dispatcher, auditService.NewRecorder(db), sessService.NewLockTable())
	t.Cleanup(dispatcher.Wait)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	sessRoute.AttendanceSessionStaffRoutes(app, controller.NewAttendanceSessionController(svc))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestStartEndpoint(t *testing.T) {
	teacherID := uuid.New()
	app, db := newTestApp(t, teacherID)

	class := testutil.SeedClass(t, db, "Kelas 5A")
	student := testutil.SeedStudent(t, db, "Agus")
	testutil.Enroll(t, db, class.SchoolClassID, student.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
	slot := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Matematika")

	payload := fiber.Map{
		"timetable_session_id": slot.TimetableSessionID,
		"date":                 "2026-01-05",
	}

	resp, env := doJSON(t, app, http.MethodPost, "/attendance-sessions/start", payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)

	var sess struct {
		ID     uuid.UUID `json:"attendance_session_id"`
		Status string    `json:"attendance_session_status"`
		Total  int       `json:"attendance_session_total_students"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, "in_progress", sess.Status)
	assert.Equal(t, 1, sess.Total)

	// start kedua utk (slot, tanggal) yang sama → 200, bukan duplikat
	resp, env = doJSON(t, app, http.MethodPost, "/attendance-sessions/start", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var again struct {
		ID uuid.UUID `json:"attendance_session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, sess.ID, again.ID)
}

func TestStartEndpointValidation(t *testing.T) {
	app, db := newTestApp(t, uuid.New())
	class := testutil.SeedClass(t, db, "Kelas 5A")
	slot := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Matematika")

	// tanggal bukan YYYY-MM-DD
	resp, env := doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"timetable_session_id": slot.TimetableSessionID,
		"date":                 "05/01/2026",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	// field wajib hilang
	resp, _ = doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"date": "2026-01-05",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// tanggal tidak jatuh di hari slot
	resp, _ = doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"timetable_session_id": slot.TimetableSessionID,
		"date":                 "2026-01-06",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// slot tidak ada
	resp, _ = doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"timetable_session_id": uuid.New(),
		"date":                 "2026-01-05",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteAndCancelEndpoints(t *testing.T) {
	teacherID := uuid.New()
	app, db := newTestApp(t, teacherID)

	class := testutil.SeedClass(t, db, "Kelas 5A")
	student := testutil.SeedStudent(t, db, "Agus")
	testutil.Enroll(t, db, class.SchoolClassID, student.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
	slot := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Matematika")

	_, env := doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"timetable_session_id": slot.TimetableSessionID,
		"date":                 "2026-01-05",
	})
	var sess struct {
		ID uuid.UUID `json:"attendance_session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))

	resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/attendance-sessions/%s/complete", sess.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// transisi ulang dari completed ditolak
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/attendance-sessions/%s/complete", sess.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/attendance-sessions/%s/cancel", sess.ID), fiber.Map{
		"reason": "salah input",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/attendance-sessions/%s/cancel", uuid.New()), fiber.Map{
		"reason": "tidak ada",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStudentsAndScheduleEndpoints(t *testing.T) {
	teacherID := uuid.New()
	app, db := newTestApp(t, teacherID)

	class := testutil.SeedClass(t, db, "Kelas 5A")
	for _, name := range []string{"Agus", "Budi"} {
		st := testutil.SeedStudent(t, db, name)
		testutil.Enroll(t, db, class.SchoolClassID, st.SchoolStudentID, testutil.Date(2025, time.December, 1), nil)
	}
	slot := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Matematika")
	free := testutil.SeedSlot(t, db, class.SchoolClassID, 1, "Bahasa Indonesia")

	_, env := doJSON(t, app, http.MethodPost, "/attendance-sessions/start", fiber.Map{
		"timetable_session_id": slot.TimetableSessionID,
		"date":                 "2026-01-05",
	})
	var sess struct {
		ID uuid.UUID `json:"attendance_session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))

	resp, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/attendance-sessions/%s/students", sess.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roster struct {
		Records []json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	assert.Len(t, roster.Records, 2)

	resp, env = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/attendance-sessions/schedule?class_id=%s&date=2026-01-05", class.SchoolClassID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []struct {
		Status string `json:"status"`
		Slot   struct {
			ID uuid.UUID `json:"timetable_session_id"`
		} `json:"slot"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)

	statusBySlot := map[uuid.UUID]string{}
	for _, e := range entries {
		statusBySlot[e.Slot.ID] = e.Status
	}
	assert.Equal(t, "in_progress", statusBySlot[slot.TimetableSessionID])
	assert.Equal(t, "scheduled", statusBySlot[free.TimetableSessionID])
}
