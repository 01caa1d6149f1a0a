package models

import (
	"time"
)

type ExamSet struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"uniqueIndex;not null;size:200" validate:"required,max=200"`
	DepartmentID uint           `json:"department_id" gorm:"not null;index" validate:"required"`
	MajorID      uint           `json:"major_id" gorm:"not null;index" validate:"required"`
	CourseID     uint           `json:"course_id" gorm:"not null;index" validate:"required"`
	ExamQuantity int            `json:"exam_quantity" gorm:"not null;default:0" validate:"min=0"`
	Description  *string        `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status       ProposalStatus `json:"status" gorm:"default:in_progress;index" validate:"omitempty,proposal_status"`

	// nil means unassigned and available for linking.
	ProposalID *uint `json:"proposal_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exams []Exam `json:"exams" gorm:"foreignKey:ExamSetID"`

	// Computed fields (not stored)
	CourseName     string `json:"course_name" gorm:"-"`
	CourseCode     string `json:"course_code" gorm:"-"`
	DepartmentName string `json:"department_name" gorm:"-"`
	MajorName      string `json:"major_name" gorm:"-"`
	ExamCount      int    `json:"exam_count" gorm:"-"`
}

func (ExamSet) TableName() string {
	return "exam_sets"
}
