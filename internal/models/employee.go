package models

import "time"

// Employee belongs to exactly one department.
type Employee struct {
	ID           uint       `gorm:"primaryKey"`
	DepartmentID uint       `gorm:"not null;index"`
	FullName     string     `gorm:"type:varchar(200);not null"`
	Position     string     `gorm:"type:varchar(200);not null"`
	HiredAt      *time.Time `gorm:"type:date"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Employee) TableName() string {
	return "employees"
}
