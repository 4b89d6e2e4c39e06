package service

import (
	"context"
	"time"
)

// MaxDepth bounds how many levels GetDepartment returns below the requested department.
const MaxDepth = 5

type DeleteMode string

const (
	DeleteModeCascade  DeleteMode = "cascade"
	DeleteModeReassign DeleteMode = "reassign"
)

type CreateDepartmentInput struct {
	Name     string
	ParentID *uint
}

type UpdateDepartmentInput struct {
	Name        *string
	ParentIDSet bool
	ParentID    *uint
}

type CreateEmployeeInput struct {
	FullName string
	Position string
	HiredAt  *time.Time
}

type GetDepartmentOptions struct {
	Depth            int
	IncludeEmployees bool
}

type DeleteDepartmentInput struct {
	Mode         DeleteMode
	ReassignToID *uint
}

type DepartmentDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	ParentID  *uint     `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

type EmployeeDTO struct {
	ID           uint      `json:"id"`
	DepartmentID uint      `json:"department_id"`
	FullName     string    `json:"full_name"`
	Position     string    `json:"position"`
	HiredAt      *string   `json:"hired_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Subtree is a department, its direct employees (empty unless requested) and
// every descendant within the requested depth, shallowest first.
type Subtree struct {
	Department  DepartmentDTO
	Employees   []EmployeeDTO
	Descendants []DescendantDTO
}

type DescendantDTO struct {
	DepartmentDTO
	Depth int `json:"depth"`
}

type DepartmentTree struct {
	Department DepartmentDTO    `json:"department"`
	Employees  *[]EmployeeDTO   `json:"employees,omitempty"`
	Children   []DepartmentTree `json:"children"`
}

// DeleteResult summarizes what a committed delete changed.
type DeleteResult struct {
	Mode               DeleteMode `json:"mode"`
	RemovedDepartments int64      `json:"removed_departments"`
	RemovedEmployees   int64      `json:"removed_employees"`
	MovedChildren      int64      `json:"moved_children"`
	MovedEmployees     int64      `json:"moved_employees"`
}

type Manager interface {
	CreateDepartment(ctx context.Context, input CreateDepartmentInput) (DepartmentDTO, error)
	CreateEmployee(ctx context.Context, departmentID uint, input CreateEmployeeInput) (EmployeeDTO, error)
	GetDepartment(ctx context.Context, departmentID uint, options GetDepartmentOptions) (Subtree, error)
	UpdateDepartment(ctx context.Context, departmentID uint, input UpdateDepartmentInput) (DepartmentDTO, error)
	DeleteDepartment(ctx context.Context, departmentID uint, input DeleteDepartmentInput) (DeleteResult, error)
}
