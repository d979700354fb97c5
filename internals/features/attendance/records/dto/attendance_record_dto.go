// file: internals/features/attendance/records/dto/attendance_record_dto.go
package dto

import (
	"github.com/google/uuid"

	recordModel "absensiku_backend/internals/features/attendance/records/model"
	recordService "absensiku_backend/internals/features/attendance/records/service"
)

/* =========================================================
   MARK (single)
   ========================================================= */

type MarkRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late excused"`
	Note      *string   `json:"note" validate:"omitempty,max=500"`
}

func (r *MarkRequest) ToItem() recordService.MarkItem {
	return recordService.MarkItem{
		StudentID: r.StudentID,
		Status:    recordModel.RecordStatus(r.Status),
		Note:      r.Note,
	}
}

/* =========================================================
   BULK MARK
   ========================================================= */

type BulkMarkRequest struct {
	Items []MarkRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

func (r *BulkMarkRequest) ToItems() []recordService.MarkItem {
	items := make([]recordService.MarkItem, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, r.Items[i].ToItem())
	}
	return items
}
