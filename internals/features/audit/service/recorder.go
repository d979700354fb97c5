// file: internals/features/audit/service/recorder.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditModel "absensiku_backend/internals/features/audit/model"
)

type Event struct {
	Kind      auditModel.EventKind
	ActorID   *uuid.UUID
	SessionID *uuid.UUID
	StudentID *uuid.UUID
	FlagID    *uuid.UUID
	Data      map[string]any
	Tags      []string
}

type Recorder struct {
	DB *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{DB: db}
}

// Record menulis satu activity event. Gagal nulis audit tidak boleh
// menggagalkan transisi yang memicunya — cukup dicatat di log.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	var data datatypes.JSON
	if ev.Data != nil {
		if b, err := json.Marshal(ev.Data); err == nil {
			data = b
		}
	}

	row := auditModel.ActivityEventModel{
		ActivityEventKind:      ev.Kind,
		ActivityEventActorID:   ev.ActorID,
		ActivityEventSessionID: ev.SessionID,
		ActivityEventStudentID: ev.StudentID,
		ActivityEventFlagID:    ev.FlagID,
		ActivityEventData:      data,
		ActivityEventTags:      ev.Tags,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[WARN] audit: gagal tulis event %s: %v", ev.Kind, err)
	}
}
