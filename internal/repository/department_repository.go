package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orgstructure/internal/models"
)

// hierarchyLockKey identifies the transaction-scoped advisory lock taken by
// structural mutations on Postgres.
const hierarchyLockKey int64 = 0x6f7267

const descendantsQuery = `WITH RECURSIVE subtree (id, depth) AS (
	SELECT id, 1 FROM departments WHERE parent_id = ?
	UNION ALL
	SELECT d.id, s.depth + 1 FROM departments d JOIN subtree s ON d.parent_id = s.id%s
)
SELECT departments.id, departments.name, departments.parent_id, departments.created_at, subtree.depth
FROM departments JOIN subtree ON departments.id = subtree.id
ORDER BY subtree.depth, departments.name, departments.id`

// The ancestor chain of a node is never longer than the forest is deep, and
// UNION stops on a repeated row even if the data were ever corrupted.
// subtreeCTE resolves a department and all of its descendants inside the
// database, so statements built on it bind one parameter whatever the size
// of the subtree.
const subtreeCTE = `WITH RECURSIVE subtree (id) AS (
	SELECT id FROM departments WHERE id = ?
	UNION ALL
	SELECT d.id FROM departments d JOIN subtree s ON d.parent_id = s.id
)`

const ancestorChainQuery = `WITH RECURSIVE chain (id, parent_id) AS (
	SELECT id, parent_id FROM departments WHERE id = ?
	UNION
	SELECT d.id, d.parent_id FROM departments d JOIN chain c ON d.id = c.parent_id
)
SELECT COUNT(*) FROM chain WHERE id = ?`

type descendantRow struct {
	ID        uint
	Name      string
	ParentID  *uint
	CreatedAt time.Time
	Depth     int
}

// GormDepartmentRepository is a GORM implementation of DepartmentRepository.
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository binds a DepartmentRepository to db, normally an open transaction.
func NewDepartmentRepository(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

func (r *GormDepartmentRepository) Get(ctx context.Context, id uint, opts GetOptions) (*models.Department, error) {
	query := r.db.WithContext(ctx)
	if opts.IncludeEmployees {
		query = query.Preload("Employees", func(db *gorm.DB) *gorm.DB {
			return db.Order("full_name ASC, id ASC")
		})
	}
	if opts.IncludeChildren {
		query = query.Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC, id ASC")
		})
	}

	var department models.Department
	if err := query.First(&department, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load department: %w", err)
	}
	return &department, nil
}

func (r *GormDepartmentRepository) ListChildren(ctx context.Context, id uint) ([]models.Department, error) {
	var children []models.Department
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", id).
		Order("name ASC, id ASC").
		Find(&children).Error; err != nil {
		return nil, fmt.Errorf("load child departments: %w", err)
	}
	return children, nil
}

func (r *GormDepartmentRepository) ListDescendants(ctx context.Context, id uint, maxDepth int) ([]Descendant, error) {
	bound := ""
	args := []interface{}{id}
	if maxDepth > 0 {
		bound = " WHERE s.depth < ?"
		args = append(args, maxDepth)
	}

	var rows []descendantRow
	if err := r.db.WithContext(ctx).Raw(fmt.Sprintf(descendantsQuery, bound), args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load descendants: %w", err)
	}

	descendants := make([]Descendant, 0, len(rows))
	for _, row := range rows {
		descendants = append(descendants, Descendant{
			Department: models.Department{
				ID:        row.ID,
				Name:      row.Name,
				ParentID:  row.ParentID,
				CreatedAt: row.CreatedAt,
			},
			Depth: row.Depth,
		})
	}
	return descendants, nil
}

func (r *GormDepartmentRepository) IsAncestorOf(ctx context.Context, candidateAncestorID, targetID uint) (bool, error) {
	if candidateAncestorID == targetID {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Raw(ancestorChainQuery, targetID, candidateAncestorID).Scan(&count).Error; err != nil {
		return false, fmt.Errorf("load parent chain: %w", err)
	}
	return count > 0, nil
}

func (r *GormDepartmentRepository) SiblingNameExists(ctx context.Context, parentID *uint, name string, excludeID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Department{}).Where("name = ?", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check sibling uniqueness: %w", err)
	}
	return count > 0, nil
}

func (r *GormDepartmentRepository) ChildNameCollisions(ctx context.Context, fromParentID, toParentID uint) ([]string, error) {
	db := r.db.WithContext(ctx)
	destinationNames := db.Model(&models.Department{}).Select("name").Where("parent_id = ?", toParentID)

	var names []string
	if err := db.Model(&models.Department{}).
		Where("parent_id = ?", fromParentID).
		Where("name IN (?)", destinationNames).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("check child name collisions: %w", err)
	}
	return names, nil
}

func (r *GormDepartmentRepository) ReparentChildren(ctx context.Context, oldParentID uint, newParentID *uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Department{}).
		Where("parent_id = ?", oldParentID).
		Update("parent_id", newParentID)
	if result.Error != nil {
		return 0, fmt.Errorf("reparent child departments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormDepartmentRepository) Update(ctx context.Context, id uint, name string, parentID *uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Department{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":      name,
			"parent_id": parentID,
		})
	if result.Error != nil {
		return fmt.Errorf("update department: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormDepartmentRepository) Add(ctx context.Context, department *models.Department) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(department).Error; err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

func (r *GormDepartmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Department{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete department: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormDepartmentRepository) DeleteSubtree(ctx context.Context, rootID uint) (int64, error) {
	result := r.db.WithContext(ctx).Exec(subtreeCTE+`
DELETE FROM departments WHERE id IN (SELECT id FROM subtree)`, rootID)
	if result.Error != nil {
		return 0, fmt.Errorf("delete department subtree: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormDepartmentRepository) LockHierarchy(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", hierarchyLockKey).Error; err != nil {
		return fmt.Errorf("lock hierarchy: %w", err)
	}
	return nil
}
