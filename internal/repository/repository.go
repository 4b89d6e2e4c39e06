package repository

import (
	"context"
	"errors"

	"orgstructure/internal/models"
)

// ErrNotFound is returned when a point lookup or single-row mutation matches
// no record.
var ErrNotFound = errors.New("record not found")

// GetOptions selects which direct relations Get eager-loads.
type GetOptions struct {
	IncludeEmployees bool
	IncludeChildren  bool
}

// Descendant is a department found below a subtree root, Depth hops away
// (direct children have depth 1).
type Descendant struct {
	models.Department
	Depth int
}

// DepartmentRepository defines data access over the department forest. All
// methods run on the transaction the repository was built from.
type DepartmentRepository interface {
	// Get finds a department by ID, optionally with its direct employees and children.
	Get(ctx context.Context, id uint, opts GetOptions) (*models.Department, error)

	// ListChildren lists the direct children of a department ordered by name.
	ListChildren(ctx context.Context, id uint) ([]models.Department, error)

	// ListDescendants lists every department reachable from id via child links,
	// at most maxDepth hops away. maxDepth <= 0 means unbounded.
	ListDescendants(ctx context.Context, id uint, maxDepth int) ([]Descendant, error)

	// IsAncestorOf reports whether targetID equals candidateAncestorID or lies
	// in its subtree.
	IsAncestorOf(ctx context.Context, candidateAncestorID, targetID uint) (bool, error)

	// SiblingNameExists reports whether a department named name already lives
	// under parentID (nil is the root scope), ignoring excludeID.
	SiblingNameExists(ctx context.Context, parentID *uint, name string, excludeID *uint) (bool, error)

	// ChildNameCollisions returns the names carried by direct children of both parents.
	ChildNameCollisions(ctx context.Context, fromParentID, toParentID uint) ([]string, error)

	// ReparentChildren moves every direct child of oldParentID under newParentID.
	ReparentChildren(ctx context.Context, oldParentID uint, newParentID *uint) (int64, error)

	// Update sets name and parent of a department in a single statement.
	Update(ctx context.Context, id uint, name string, parentID *uint) error

	// Add stages a new department.
	Add(ctx context.Context, department *models.Department) error

	// Delete removes exactly one department. Children and employees must be
	// resolved by the caller.
	Delete(ctx context.Context, id uint) error

	// DeleteSubtree removes rootID and every descendant in one statement.
	// Employees of the subtree must be removed first.
	DeleteSubtree(ctx context.Context, rootID uint) (int64, error)

	// LockHierarchy serializes structural mutations until the transaction ends.
	LockHierarchy(ctx context.Context) error
}

// EmployeeRepository defines data access for employees.
type EmployeeRepository interface {
	// Add stages a new employee.
	Add(ctx context.Context, employee *models.Employee) error

	// ListByDepartment lists the employees of one department ordered by full name.
	ListByDepartment(ctx context.Context, departmentID uint) ([]models.Employee, error)

	// ReassignDepartment moves every employee of oldDepartmentID to newDepartmentID.
	ReassignDepartment(ctx context.Context, oldDepartmentID, newDepartmentID uint) (int64, error)

	// DeleteInSubtree removes the employees of rootID and of every descendant.
	DeleteInSubtree(ctx context.Context, rootID uint) (int64, error)
}
