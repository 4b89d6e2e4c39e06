package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orgstructure/internal/models"
)

// GormEmployeeRepository is a GORM implementation of EmployeeRepository.
type GormEmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

func (r *GormEmployeeRepository) Add(ctx context.Context, employee *models.Employee) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(employee).Error; err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (r *GormEmployeeRepository) ListByDepartment(ctx context.Context, departmentID uint) ([]models.Employee, error) {
	var employees []models.Employee
	if err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("full_name ASC, id ASC").
		Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	return employees, nil
}

func (r *GormEmployeeRepository) ReassignDepartment(ctx context.Context, oldDepartmentID, newDepartmentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("department_id = ?", oldDepartmentID).
		Update("department_id", newDepartmentID)
	if result.Error != nil {
		return 0, fmt.Errorf("reassign employees: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormEmployeeRepository) DeleteInSubtree(ctx context.Context, rootID uint) (int64, error) {
	result := r.db.WithContext(ctx).Exec(subtreeCTE+`
DELETE FROM employees WHERE department_id IN (SELECT id FROM subtree)`, rootID)
	if result.Error != nil {
		return 0, fmt.Errorf("delete employees: %w", result.Error)
	}
	return result.RowsAffected, nil
}
