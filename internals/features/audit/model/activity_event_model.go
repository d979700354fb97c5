// file: internals/features/audit/model/activity_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventKind string

const (
	EventSessionStarted   EventKind = "session_started"
	EventSessionCompleted EventKind = "session_completed"
	EventSessionCanceled  EventKind = "session_canceled"
	EventFlagRaised       EventKind = "flag_raised"
	EventFlagCleared      EventKind = "flag_cleared"
)

/* =========================================
   Model: activity_events — append-only.
   Tidak ada jalur update/delete di mana pun.
   ========================================= */

type ActivityEventModel struct {
	ActivityEventID uuid.UUID `gorm:"type:uuid;primaryKey;column:activity_event_id" json:"activity_event_id"`

	ActivityEventKind    EventKind  `gorm:"type:varchar(30);not null;index;column:activity_event_kind" json:"activity_event_kind"`
	ActivityEventActorID *uuid.UUID `gorm:"type:uuid;column:activity_event_actor_id" json:"activity_event_actor_id,omitempty"`

	ActivityEventSessionID *uuid.UUID `gorm:"type:uuid;index;column:activity_event_session_id" json:"activity_event_session_id,omitempty"`
	ActivityEventStudentID *uuid.UUID `gorm:"type:uuid;column:activity_event_student_id" json:"activity_event_student_id,omitempty"`
	ActivityEventFlagID    *uuid.UUID `gorm:"type:uuid;column:activity_event_flag_id" json:"activity_event_flag_id,omitempty"`

	ActivityEventData datatypes.JSON `gorm:"column:activity_event_data" json:"activity_event_data,omitempty"`
	ActivityEventTags pq.StringArray `gorm:"type:text[];column:activity_event_tags" json:"activity_event_tags,omitempty"`

	ActivityEventCreatedAt time.Time `gorm:"not null;autoCreateTime;column:activity_event_created_at" json:"activity_event_created_at"`
}

func (ActivityEventModel) TableName() string {
	return "activity_events"
}

func (m *ActivityEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.ActivityEventID == uuid.Nil {
		m.ActivityEventID = uuid.New()
	}
	return nil
}
