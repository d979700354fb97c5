// file: internals/features/attendance/notifications/service/dispatcher.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	flagModel "absensiku_backend/internals/features/attendance/flags/model"
	notifModel "absensiku_backend/internals/features/attendance/notifications/model"
	sessionModel "absensiku_backend/internals/features/attendance/sessions/model"
	enrollService "absensiku_backend/internals/features/school/enrollment/service"
)

var (
	ErrNotRecipient    = errors.New("bukan penerima notifikasi ini")
	ErrUnknownDelivery = errors.New("delivery id tidak dikenal")
	ErrNotAdvanceable  = errors.New("status notifikasi tidak bisa maju ke sana")
)

var defaultChannels = []string{"push"}

/* =========================================
   Notification Dispatcher
   Insert row dulu (status created), kirim via goroutine — transisi
   pemicunya (complete/raise) tidak pernah nunggu transport.
   ========================================= */

type Service struct {
	DB        *gorm.DB
	Transport Transport
	Resolver  *enrollService.Resolver

	wg sync.WaitGroup
}

func NewService(db *gorm.DB, transport Transport) *Service {
	return &Service{
		DB:        db,
		Transport: transport,
		Resolver:  enrollService.NewResolver(db),
	}
}

// Wait menunggu semua pengiriman in-flight (dipakai test & shutdown).
func (s *Service) Wait() {
	s.wg.Wait()
}

/* ===============================
   Fan-out builders
=================================*/

// NotifyFlagRaised: satu notifikasi per relasi wali aktif — loop eksplisit,
// bukan satu notifikasi multi-recipient, supaya read/delivery state
// tiap wali independen.
func (s *Service) NotifyFlagRaised(ctx context.Context, flag *flagModel.StudentAbsenceFlagModel, studentName string) ([]notifModel.AttendanceNotificationModel, error) {
	parents, err := s.Resolver.ParentsOf(ctx, flag.StudentAbsenceFlagStudentID)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"flag_id":      flag.StudentAbsenceFlagID,
		"flag_kind":    flag.StudentAbsenceFlagKind,
		"student_id":   flag.StudentAbsenceFlagStudentID,
		"student_name": studentName,
	})

	rows := make([]notifModel.AttendanceNotificationModel, 0, len(parents))
	for _, p := range parents {
		rows = append(rows, notifModel.AttendanceNotificationModel{
			AttendanceNotificationRecipientUserID: p.ParentUserID,
			AttendanceNotificationStudentID:       &flag.StudentAbsenceFlagStudentID,
			AttendanceNotificationType:            notifModel.NotificationTypeFlagRaised,
			AttendanceNotificationFlagID:          &flag.StudentAbsenceFlagID,
			AttendanceNotificationTitle:           fmt.Sprintf("Pola absen terdeteksi: %s", studentName),
			AttendanceNotificationBody:            fmt.Sprintf("Kehadiran %s melewati ambang pola %s. Mohon hubungi wali kelas.", studentName, flag.StudentAbsenceFlagKind),
			AttendanceNotificationPayload:         payload,
			AttendanceNotificationChannels:        defaultChannels,
		})
	}
	return s.createAndDispatch(ctx, rows)
}

// NotifyFlagCleared: fan-out yang sama utk event clear.
func (s *Service) NotifyFlagCleared(ctx context.Context, flag *flagModel.StudentAbsenceFlagModel, studentName string) ([]notifModel.AttendanceNotificationModel, error) {
	parents, err := s.Resolver.ParentsOf(ctx, flag.StudentAbsenceFlagStudentID)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"flag_id":    flag.StudentAbsenceFlagID,
		"flag_kind":  flag.StudentAbsenceFlagKind,
		"student_id": flag.StudentAbsenceFlagStudentID,
		"reason":     flag.StudentAbsenceFlagClearanceReason,
	})

	rows := make([]notifModel.AttendanceNotificationModel, 0, len(parents))
	for _, p := range parents {
		rows = append(rows, notifModel.AttendanceNotificationModel{
			AttendanceNotificationRecipientUserID: p.ParentUserID,
			AttendanceNotificationStudentID:       &flag.StudentAbsenceFlagStudentID,
			AttendanceNotificationType:            notifModel.NotificationTypeFlagCleared,
			AttendanceNotificationFlagID:          &flag.StudentAbsenceFlagID,
			AttendanceNotificationTitle:           fmt.Sprintf("Flag absen %s sudah ditindaklanjuti", studentName),
			AttendanceNotificationBody:            fmt.Sprintf("Flag kehadiran %s telah di-clear oleh staf.", studentName),
			AttendanceNotificationPayload:         payload,
			AttendanceNotificationChannels:        defaultChannels,
		})
	}
	return s.createAndDispatch(ctx, rows)
}

// NotifySessionCompleted: ringkasan sesi ke staf yang berlangganan.
func (s *Service) NotifySessionCompleted(ctx context.Context, sess *sessionModel.AttendanceSessionModel) ([]notifModel.AttendanceNotificationModel, error) {
	staff, err := s.Resolver.SummarySubscribers(ctx, sess.AttendanceSessionClassID)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"session_id":    sess.AttendanceSessionID,
		"class_id":      sess.AttendanceSessionClassID,
		"date":          sess.AttendanceSessionDate.Format("2006-01-02"),
		"total":         sess.AttendanceSessionTotalStudents,
		"present_count": sess.AttendanceSessionPresentCount,
		"absent_count":  sess.AttendanceSessionAbsentCount,
		"late_count":    sess.AttendanceSessionLateCount,
		"excused_count": sess.AttendanceSessionExcusedCount,
	})

	rows := make([]notifModel.AttendanceNotificationModel, 0, len(staff))
	for _, userID := range staff {
		rows = append(rows, notifModel.AttendanceNotificationModel{
			AttendanceNotificationRecipientUserID: userID,
			AttendanceNotificationType:            notifModel.NotificationTypeSessionCompleted,
			AttendanceNotificationSessionID:       &sess.AttendanceSessionID,
			AttendanceNotificationTitle: fmt.Sprintf("Rekap sesi %s: %d hadir / %d absen",
				sess.AttendanceSessionDate.Format("2006-01-02"),
				sess.AttendanceSessionPresentCount,
				sess.AttendanceSessionAbsentCount),
			AttendanceNotificationBody:     "Sesi kehadiran selesai.",
			AttendanceNotificationPayload:  payload,
			AttendanceNotificationChannels: defaultChannels,
		})
	}
	return s.createAndDispatch(ctx, rows)
}

func (s *Service) createAndDispatch(ctx context.Context, rows []notifModel.AttendanceNotificationModel) ([]notifModel.AttendanceNotificationModel, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		n := rows[i] // copy utk goroutine
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.send(n)
		}()
	}
	return rows, nil
}

// send jalan di luar request: pakai context sendiri, kegagalan cuma
// ditandai failed utk retry policy, tidak pernah dieskalasi ke caller.
func (s *Service) send(n notifModel.AttendanceNotificationModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deliveryID, err := s.Transport.Send(ctx, &n)
	now := time.Now()
	if err != nil {
		log.Printf("[WARN] notif %s: transport gagal: %v", n.AttendanceNotificationID, err)
		s.advance(ctx, n.AttendanceNotificationID, notifModel.NotificationStatusFailed, map[string]any{
			"attendance_notification_failed_at": now,
		})
		return
	}
	s.advance(ctx, n.AttendanceNotificationID, notifModel.NotificationStatusSent, map[string]any{
		"attendance_notification_sent_at":     now,
		"attendance_notification_delivery_id": deliveryID,
	})
}

func (s *Service) advance(ctx context.Context, id uuid.UUID, next notifModel.NotificationStatus, extra map[string]any) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur notifModel.AttendanceNotificationModel
		if err := tx.First(&cur, "attendance_notification_id = ?", id).Error; err != nil {
			return err
		}
		if !notifModel.CanAdvance(cur.AttendanceNotificationStatus, next) {
			return nil // transisi mundur/duplikat diabaikan, bukan error
		}
		updates := map[string]any{"attendance_notification_status": next}
		for k, v := range extra {
			updates[k] = v
		}
		return tx.Model(&notifModel.AttendanceNotificationModel{}).
			Where("attendance_notification_id = ?", id).
			Updates(updates).Error
	})
	if err != nil {
		log.Printf("[WARN] notif %s: gagal update status→%s: %v", id, next, err)
	}
}

/* ===============================
   Callback transport & aksi penerima
=================================*/

// OnDeliveryUpdate: callback async dari transport. Status hanya maju
// (sent→delivered, atau →failed); regresi diabaikan.
func (s *Service) OnDeliveryUpdate(ctx context.Context, deliveryID string, status notifModel.NotificationStatus) error {
	if status != notifModel.NotificationStatusSent &&
		status != notifModel.NotificationStatusDelivered &&
		status != notifModel.NotificationStatusFailed {
		return ErrNotAdvanceable
	}

	var n notifModel.AttendanceNotificationModel
	if err := s.DB.WithContext(ctx).
		First(&n, "attendance_notification_delivery_id = ?", deliveryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownDelivery
		}
		return err
	}

	now := time.Now()
	extra := map[string]any{}
	switch status {
	case notifModel.NotificationStatusDelivered:
		extra["attendance_notification_delivered_at"] = now
	case notifModel.NotificationStatusFailed:
		extra["attendance_notification_failed_at"] = now
	}
	s.advance(ctx, n.AttendanceNotificationID, status, extra)
	return nil
}

// MarkRead: aksi penerima sendiri; monoton — sudah read berarti no-op.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*notifModel.AttendanceNotificationModel, error) {
	var n notifModel.AttendanceNotificationModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "attendance_notification_id = ?", notificationID).Error; err != nil {
			return err
		}
		if n.AttendanceNotificationRecipientUserID != userID {
			return ErrNotRecipient
		}
		if n.AttendanceNotificationStatus == notifModel.NotificationStatusRead {
			return nil // idempoten
		}
		if n.AttendanceNotificationStatus == notifModel.NotificationStatusFailed {
			return ErrNotAdvanceable
		}
		now := time.Now()
		n.AttendanceNotificationStatus = notifModel.NotificationStatusRead
		n.AttendanceNotificationReadAt = &now
		return tx.Model(&notifModel.AttendanceNotificationModel{}).
			Where("attendance_notification_id = ?", notificationID).
			Updates(map[string]any{
				"attendance_notification_status":  notifModel.NotificationStatusRead,
				"attendance_notification_read_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForRecipient: notifikasi milik user, terbaru dulu.
func (s *Service) ListForRecipient(ctx context.Context, userID uuid.UUID, offset, limit int) ([]notifModel.AttendanceNotificationModel, int64, error) {
	var total int64
	q := s.DB.WithContext(ctx).
		Model(&notifModel.AttendanceNotificationModel{}).
		Where("attendance_notification_recipient_user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []notifModel.AttendanceNotificationModel
	if err := q.Order("attendance_notification_created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
