// file: internals/features/school/enrollment/model/enrollment_models.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================
   Model eksternal (read-only bagi engine):
   kelas, siswa, enrolment per tanggal, relasi wali,
   dan langganan ringkasan harian utk staf.
   ========================================= */

type SchoolClassModel struct {
	SchoolClassID   uuid.UUID `gorm:"type:uuid;primaryKey;column:school_class_id" json:"school_class_id"`
	SchoolClassName string    `gorm:"type:varchar(120);not null;column:school_class_name" json:"school_class_name"`
	SchoolClassYear string    `gorm:"type:varchar(20);column:school_class_year" json:"school_class_year"`

	SchoolClassCreatedAt time.Time      `gorm:"not null;autoCreateTime;column:school_class_created_at" json:"school_class_created_at"`
	SchoolClassUpdatedAt time.Time      `gorm:"not null;autoUpdateTime;column:school_class_updated_at" json:"school_class_updated_at"`
	SchoolClassDeletedAt gorm.DeletedAt `gorm:"column:school_class_deleted_at;index" json:"school_class_deleted_at,omitempty"`
}

func (SchoolClassModel) TableName() string { return "school_classes" }

func (m *SchoolClassModel) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolClassID == uuid.Nil {
		m.SchoolClassID = uuid.New()
	}
	return nil
}

type SchoolStudentModel struct {
	SchoolStudentID     uuid.UUID `gorm:"type:uuid;primaryKey;column:school_student_id" json:"school_student_id"`
	SchoolStudentName   string    `gorm:"type:varchar(120);not null;column:school_student_name" json:"school_student_name"`
	SchoolStudentNumber string    `gorm:"type:varchar(40);column:school_student_number" json:"school_student_number"`

	SchoolStudentCreatedAt time.Time      `gorm:"not null;autoCreateTime;column:school_student_created_at" json:"school_student_created_at"`
	SchoolStudentUpdatedAt time.Time      `gorm:"not null;autoUpdateTime;column:school_student_updated_at" json:"school_student_updated_at"`
	SchoolStudentDeletedAt gorm.DeletedAt `gorm:"column:school_student_deleted_at;index" json:"school_student_deleted_at,omitempty"`
}

func (SchoolStudentModel) TableName() string { return "school_students" }

func (m *SchoolStudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolStudentID == uuid.Nil {
		m.SchoolStudentID = uuid.New()
	}
	return nil
}

// Enrolment punya rentang berlaku → snapshot roster tergantung tanggal.
type ClassEnrollmentModel struct {
	ClassEnrollmentID uuid.UUID `gorm:"type:uuid;primaryKey;column:class_enrollment_id" json:"class_enrollment_id"`

	ClassEnrollmentClassID   uuid.UUID `gorm:"type:uuid;not null;index;column:class_enrollment_class_id" json:"class_enrollment_class_id"`
	ClassEnrollmentStudentID uuid.UUID `gorm:"type:uuid;not null;index;column:class_enrollment_student_id" json:"class_enrollment_student_id"`

	ClassEnrollmentJoinedAt time.Time  `gorm:"type:date;not null;column:class_enrollment_joined_at" json:"class_enrollment_joined_at"`
	ClassEnrollmentLeftAt   *time.Time `gorm:"type:date;column:class_enrollment_left_at" json:"class_enrollment_left_at,omitempty"`

	ClassEnrollmentCreatedAt time.Time      `gorm:"not null;autoCreateTime;column:class_enrollment_created_at" json:"class_enrollment_created_at"`
	ClassEnrollmentDeletedAt gorm.DeletedAt `gorm:"column:class_enrollment_deleted_at;index" json:"class_enrollment_deleted_at,omitempty"`
}

func (ClassEnrollmentModel) TableName() string { return "class_enrollments" }

func (m *ClassEnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClassEnrollmentID == uuid.Nil {
		m.ClassEnrollmentID = uuid.New()
	}
	return nil
}

type ParentRelationKind string

const (
	ParentRelationFather   ParentRelationKind = "father"
	ParentRelationMother   ParentRelationKind = "mother"
	ParentRelationGuardian ParentRelationKind = "guardian"
)

type StudentParentRelationModel struct {
	StudentParentRelationID uuid.UUID `gorm:"type:uuid;primaryKey;column:student_parent_relation_id" json:"student_parent_relation_id"`

	StudentParentRelationStudentID    uuid.UUID          `gorm:"type:uuid;not null;index;column:student_parent_relation_student_id" json:"student_parent_relation_student_id"`
	StudentParentRelationParentUserID uuid.UUID          `gorm:"type:uuid;not null;column:student_parent_relation_parent_user_id" json:"student_parent_relation_parent_user_id"`
	StudentParentRelationKind         ParentRelationKind `gorm:"type:varchar(20);not null;column:student_parent_relation_kind" json:"student_parent_relation_kind"`
	StudentParentRelationIsPrimary    bool               `gorm:"not null;default:false;column:student_parent_relation_is_primary" json:"student_parent_relation_is_primary"`
	StudentParentRelationIsActive     bool               `gorm:"not null;default:true;column:student_parent_relation_is_active" json:"student_parent_relation_is_active"`

	StudentParentRelationCreatedAt time.Time `gorm:"not null;autoCreateTime;column:student_parent_relation_created_at" json:"student_parent_relation_created_at"`
}

func (StudentParentRelationModel) TableName() string { return "student_parent_relations" }

func (m *StudentParentRelationModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentParentRelationID == uuid.Nil {
		m.StudentParentRelationID = uuid.New()
	}
	return nil
}

// Staf yang berlangganan ringkasan sesi harian (penerima notifikasi
// session-completed-summary).
type StaffSummarySubscriptionModel struct {
	StaffSummarySubscriptionID uuid.UUID `gorm:"type:uuid;primaryKey;column:staff_summary_subscription_id" json:"staff_summary_subscription_id"`

	StaffSummarySubscriptionUserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex;column:staff_summary_subscription_user_id" json:"staff_summary_subscription_user_id"`
	StaffSummarySubscriptionClassID  *uuid.UUID `gorm:"type:uuid;column:staff_summary_subscription_class_id" json:"staff_summary_subscription_class_id,omitempty"` // NULL = semua kelas
	StaffSummarySubscriptionIsActive bool       `gorm:"not null;default:true;column:staff_summary_subscription_is_active" json:"staff_summary_subscription_is_active"`

	StaffSummarySubscriptionCreatedAt time.Time `gorm:"not null;autoCreateTime;column:staff_summary_subscription_created_at" json:"staff_summary_subscription_created_at"`
}

func (StaffSummarySubscriptionModel) TableName() string { return "staff_summary_subscriptions" }

func (m *StaffSummarySubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if m.StaffSummarySubscriptionID == uuid.Nil {
		m.StaffSummarySubscriptionID = uuid.New()
	}
	return nil
}
