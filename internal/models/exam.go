package models

import (
	"time"

	"gorm.io/datatypes"
)

type Exam struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	ExamCode     string         `json:"exam_code" gorm:"uniqueIndex;not null;size:100" validate:"required,max=100"`
	ExamName     string         `json:"exam_name" gorm:"uniqueIndex;not null;size:200" validate:"required,max=200"`
	AttachedFile string         `json:"attached_file" gorm:"uniqueIndex;not null;size:500" validate:"required,max=500"`
	Comment      *string        `json:"comment" gorm:"type:text" validate:"omitempty,max=1000"`
	Description  *string        `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	UploadDate   *time.Time     `json:"upload_date"`
	Status       ProposalStatus `json:"status" gorm:"default:in_progress;index" validate:"omitempty,proposal_status"`

	AcademicYearID uint `json:"academic_year_id" gorm:"not null;index" validate:"required"`

	// nil means detached from any exam set.
	ExamSetID *uint `json:"exam_set_id" gorm:"index"`

	// Upload metadata (original filename, size, mime type).
	Meta datatypes.JSON `json:"meta" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed fields (not stored)
	AcademicYearName string `json:"academic_year_name" gorm:"-"`
}

func (Exam) TableName() string {
	return "exams"
}
