package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"orgstructure/internal/apperror"
	"orgstructure/internal/models"
	"orgstructure/internal/repository"
	"orgstructure/internal/uow"
)

type DepartmentService struct {
	uow    uow.UnitOfWork
	logger zerolog.Logger
}

func NewDepartmentService(unitOfWork uow.UnitOfWork, logger zerolog.Logger) *DepartmentService {
	return &DepartmentService{
		uow:    unitOfWork,
		logger: logger,
	}
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, input CreateDepartmentInput) (DepartmentDTO, error) {
	var department models.Department

	err := s.uow.Do(ctx, func(repos uow.Repositories) error {
		if input.ParentID != nil {
			if err := repos.Departments.LockHierarchy(ctx); err != nil {
				return err
			}
			if _, err := repos.Departments.Get(ctx, *input.ParentID, repository.GetOptions{}); err != nil {
				return notFoundAs(err, "parent department not found")
			}
		}

		if err := ensureUniqueName(ctx, repos, input.ParentID, input.Name, nil); err != nil {
			return err
		}

		department = models.Department{
			Name:     input.Name,
			ParentID: input.ParentID,
		}
		return repos.Departments.Add(ctx, &department)
	})
	if err != nil {
		return DepartmentDTO{}, err
	}

	return departmentToDTO(department), nil
}

func (s *DepartmentService) CreateEmployee(ctx context.Context, departmentID uint, input CreateEmployeeInput) (EmployeeDTO, error) {
	var employee models.Employee

	err := s.uow.Do(ctx, func(repos uow.Repositories) error {
		if err := repos.Departments.LockHierarchy(ctx); err != nil {
			return err
		}
		if _, err := repos.Departments.Get(ctx, departmentID, repository.GetOptions{}); err != nil {
			return notFoundAs(err, "department not found")
		}

		employee = models.Employee{
			DepartmentID: departmentID,
			FullName:     input.FullName,
			Position:     input.Position,
			HiredAt:      input.HiredAt,
		}
		return repos.Employees.Add(ctx, &employee)
	})
	if err != nil {
		return EmployeeDTO{}, err
	}

	return employeeToDTO(employee), nil
}

func (s *DepartmentService) GetDepartment(ctx context.Context, departmentID uint, options GetDepartmentOptions) (Subtree, error) {
	if options.Depth < 0 || options.Depth > MaxDepth {
		return Subtree{}, apperror.InvalidRequest(fmt.Sprintf("depth must be between 0 and %d", MaxDepth))
	}

	result := Subtree{
		Employees:   []EmployeeDTO{},
		Descendants: []DescendantDTO{},
	}

	err := s.uow.Read(ctx, func(repos uow.Repositories) error {
		department, err := repos.Departments.Get(ctx, departmentID, repository.GetOptions{
			IncludeEmployees: options.IncludeEmployees,
		})
		if err != nil {
			return notFoundAs(err, "department not found")
		}

		result.Department = departmentToDTO(*department)
		for _, employee := range department.Employees {
			result.Employees = append(result.Employees, employeeToDTO(employee))
		}

		if options.Depth == 0 {
			return nil
		}

		descendants, err := repos.Departments.ListDescendants(ctx, departmentID, options.Depth)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			result.Descendants = append(result.Descendants, DescendantDTO{
				DepartmentDTO: departmentToDTO(d.Department),
				Depth:         d.Depth,
			})
		}
		return nil
	})
	if err != nil {
		return Subtree{}, err
	}

	return result, nil
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, departmentID uint, input UpdateDepartmentInput) (DepartmentDTO, error) {
	var department *models.Department
	changed := false

	err := s.uow.Do(ctx, func(repos uow.Repositories) error {
		if input.Name != nil || input.ParentIDSet {
			if err := repos.Departments.LockHierarchy(ctx); err != nil {
				return err
			}
		}

		var err error
		department, err = repos.Departments.Get(ctx, departmentID, repository.GetOptions{})
		if err != nil {
			return notFoundAs(err, "department not found")
		}

		if input.Name == nil && !input.ParentIDSet {
			return nil
		}

		newName := department.Name
		if input.Name != nil {
			newName = *input.Name
		}

		newParentID := department.ParentID
		if input.ParentIDSet {
			newParentID = input.ParentID
		}
		parentChanged := !equalUintPtr(department.ParentID, newParentID)

		if parentChanged && newParentID != nil {
			if _, err := repos.Departments.Get(ctx, *newParentID, repository.GetOptions{}); err != nil {
				return notFoundAs(err, "parent department not found")
			}
			willCycle, err := repos.Departments.IsAncestorOf(ctx, departmentID, *newParentID)
			if err != nil {
				return err
			}
			if willCycle {
				return apperror.Cycle("department cycle detected")
			}
		}

		if err := ensureUniqueName(ctx, repos, newParentID, newName, &departmentID); err != nil {
			return err
		}

		if newName == department.Name && !parentChanged {
			return nil
		}

		if err := repos.Departments.Update(ctx, departmentID, newName, newParentID); err != nil {
			return err
		}
		department.Name = newName
		department.ParentID = newParentID
		changed = true
		return nil
	})
	if err != nil {
		return DepartmentDTO{}, err
	}

	if changed {
		s.logger.Info().
			Uint("department_id", departmentID).
			Str("name", department.Name).
			Interface("parent_id", department.ParentID).
			Msg("department updated")
	}

	return departmentToDTO(*department), nil
}

func (s *DepartmentService) DeleteDepartment(ctx context.Context, departmentID uint, input DeleteDepartmentInput) (DeleteResult, error) {
	switch input.Mode {
	case DeleteModeCascade:
		if input.ReassignToID != nil {
			return DeleteResult{}, apperror.InvalidRequest("reassign_to_department_id is not allowed when mode=cascade")
		}
	case DeleteModeReassign:
		if input.ReassignToID == nil {
			return DeleteResult{}, apperror.InvalidRequest("reassign_to_department_id is required when mode=reassign")
		}
	default:
		return DeleteResult{}, apperror.InvalidRequest("mode must be one of: cascade, reassign")
	}

	var result DeleteResult

	err := s.uow.Do(ctx, func(repos uow.Repositories) error {
		result = DeleteResult{Mode: input.Mode}

		if err := repos.Departments.LockHierarchy(ctx); err != nil {
			return err
		}

		if _, err := repos.Departments.Get(ctx, departmentID, repository.GetOptions{}); err != nil {
			return notFoundAs(err, "department not found")
		}

		if input.Mode == DeleteModeCascade {
			return deleteCascade(ctx, repos, departmentID, &result)
		}
		return deleteReassign(ctx, repos, departmentID, *input.ReassignToID, &result)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	s.logger.Info().
		Uint("department_id", departmentID).
		Str("mode", string(result.Mode)).
		Int64("removed_departments", result.RemovedDepartments).
		Int64("removed_employees", result.RemovedEmployees).
		Int64("moved_children", result.MovedChildren).
		Int64("moved_employees", result.MovedEmployees).
		Msg("department deleted")

	return result, nil
}

// deleteCascade removes the department, its whole subtree and every employee
// inside it. The subtree is resolved by the database, not passed back as ids.
func deleteCascade(ctx context.Context, repos uow.Repositories, departmentID uint, result *DeleteResult) error {
	var err error
	if result.RemovedEmployees, err = repos.Employees.DeleteInSubtree(ctx, departmentID); err != nil {
		return err
	}
	if result.RemovedDepartments, err = repos.Departments.DeleteSubtree(ctx, departmentID); err != nil {
		return err
	}
	return nil
}

// deleteReassign hands the direct children and direct employees of the
// department to the destination, then removes the department.
func deleteReassign(ctx context.Context, repos uow.Repositories, departmentID, destinationID uint, result *DeleteResult) error {
	if _, err := repos.Departments.Get(ctx, destinationID, repository.GetOptions{}); err != nil {
		return notFoundAs(err, "reassign target department not found")
	}

	intoOwnSubtree, err := repos.Departments.IsAncestorOf(ctx, departmentID, destinationID)
	if err != nil {
		return err
	}
	if intoOwnSubtree {
		return apperror.Cycle("cannot reassign into the department itself or its subtree")
	}

	collisions, err := repos.Departments.ChildNameCollisions(ctx, departmentID, destinationID)
	if err != nil {
		return err
	}
	if len(collisions) > 0 {
		return apperror.DuplicateName(fmt.Sprintf(
			"reassign target already has child departments named: %s", strings.Join(collisions, ", ")))
	}

	if result.MovedChildren, err = repos.Departments.ReparentChildren(ctx, departmentID, &destinationID); err != nil {
		return err
	}
	if result.MovedEmployees, err = repos.Employees.ReassignDepartment(ctx, departmentID, destinationID); err != nil {
		return err
	}
	if err := repos.Departments.Delete(ctx, departmentID); err != nil {
		return err
	}
	result.RemovedDepartments = 1
	return nil
}

// ensureUniqueName is the pre-check; the unique index stays the final authority.
func ensureUniqueName(ctx context.Context, repos uow.Repositories, parentID *uint, name string, excludeID *uint) error {
	exists, err := repos.Departments.SiblingNameExists(ctx, parentID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.DuplicateName("department name must be unique under the same parent")
	}
	return nil
}

func notFoundAs(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(message)
	}
	return err
}

func departmentToDTO(department models.Department) DepartmentDTO {
	return DepartmentDTO{
		ID:        department.ID,
		Name:      department.Name,
		ParentID:  department.ParentID,
		CreatedAt: department.CreatedAt,
	}
}

func employeeToDTO(employee models.Employee) EmployeeDTO {
	var hiredAt *string
	if employee.HiredAt != nil {
		formatted := employee.HiredAt.Format("2006-01-02")
		hiredAt = &formatted
	}

	return EmployeeDTO{
		ID:           employee.ID,
		DepartmentID: employee.DepartmentID,
		FullName:     employee.FullName,
		Position:     employee.Position,
		HiredAt:      hiredAt,
		CreatedAt:    employee.CreatedAt,
	}
}

func equalUintPtr(a *uint, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
