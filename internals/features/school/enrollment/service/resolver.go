// file: internals/features/school/enrollment/service/resolver.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	enrollModel "absensiku_backend/internals/features/school/enrollment/model"
)

// ErrEnrollmentUnavailable: store enrolment tidak bisa menjawab — fatal utk
// pembuatan sesi (tidak boleh ada sesi parsial).
var ErrEnrollmentUnavailable = errors.New("enrollment store unavailable")

type StudentRef struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
}

type ParentRef struct {
	ParentUserID uuid.UUID                      `json:"parent_user_id"`
	Kind         enrollModel.ParentRelationKind `json:"kind"`
	IsPrimary    bool                           `json:"is_primary"`
}

type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db}
}

// Resolve mengembalikan roster siswa yang terdaftar di kelas pada tanggal
// tertentu, urut nama lalu id — deterministik utk (classID, date) yang sama.
func (r *Resolver) Resolve(ctx context.Context, classID uuid.UUID, date time.Time) ([]StudentRef, error) {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var rows []StudentRef
	err := r.DB.WithContext(ctx).
		Table("class_enrollments AS ce").
		Joins("JOIN school_students AS ss ON ss.school_student_id = ce.class_enrollment_student_id AND ss.school_student_deleted_at IS NULL").
		Where("ce.class_enrollment_class_id = ?", classID).
		Where("ce.class_enrollment_deleted_at IS NULL").
		Where("ce.class_enrollment_joined_at <= ?", d).
		Where("ce.class_enrollment_left_at IS NULL OR ce.class_enrollment_left_at > ?", d).
		Select("ss.school_student_id AS student_id, ss.school_student_name AS student_name").
		Order("ss.school_student_name ASC, ss.school_student_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrollmentUnavailable, err)
	}
	return rows, nil
}

// ParentsOf mengembalikan relasi wali aktif, primary duluan.
func (r *Resolver) ParentsOf(ctx context.Context, studentID uuid.UUID) ([]ParentRef, error) {
	var rows []ParentRef
	err := r.DB.WithContext(ctx).
		Model(&enrollModel.StudentParentRelationModel{}).
		Where("student_parent_relation_student_id = ?", studentID).
		Where("student_parent_relation_is_active = ?", true).
		Select(`student_parent_relation_parent_user_id AS parent_user_id,
			student_parent_relation_kind AS kind,
			student_parent_relation_is_primary AS is_primary`).
		Order("student_parent_relation_is_primary DESC, student_parent_relation_created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SummarySubscribers: staf penerima ringkasan harian utk kelas tertentu
// (subscription dgn class NULL berarti semua kelas).
func (r *Resolver) SummarySubscribers(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).
		Model(&enrollModel.StaffSummarySubscriptionModel{}).
		Where("staff_summary_subscription_is_active = ?", true).
		Where("staff_summary_subscription_class_id IS NULL OR staff_summary_subscription_class_id = ?", classID).
		Pluck("staff_summary_subscription_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
