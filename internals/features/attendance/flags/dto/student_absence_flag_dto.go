// file: internals/features/attendance/flags/dto/student_absence_flag_dto.go
package dto

type ClearFlagRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
