package models

import "time"

// Reference data. Read-only for this service: the core only resolves
// names/codes for display and never mutates these tables.

type Department struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200"`
	Code string `json:"code" gorm:"uniqueIndex;size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Major struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null;size:200"`
	Code         string `json:"code" gorm:"uniqueIndex;size:50"`
	DepartmentID uint   `json:"department_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Course struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:200"`
	Code    string `json:"code" gorm:"uniqueIndex;size:50"`
	Credit  int    `json:"credit" gorm:"default:0"`
	MajorID uint   `json:"major_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AcademicYear struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"uniqueIndex;not null;size:50"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Department) TableName() string   { return "departments" }
func (Major) TableName() string        { return "majors" }
func (Course) TableName() string       { return "courses" }
func (AcademicYear) TableName() string { return "academic_years" }
