package models

import "time"

// UniqueNameConstraint is the storage-level index that keeps sibling names
// unique, the root scope included.
const UniqueNameConstraint = "uq_departments_parent_name"

// Department is a node of the organization forest. A nil ParentID marks a root.
type Department struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"type:varchar(200);not null"`
	ParentID *uint  `gorm:"index"`

	// Loaded only on request. Deletes never cascade through these keys; the
	// service resolves children and employees first.
	Children  []Department `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:NO ACTION"`
	Employees []Employee   `gorm:"foreignKey:DepartmentID;references:ID;constraint:OnDelete:NO ACTION"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Department) TableName() string {
	return "departments"
}
