package db

import (
	"fmt"

	"gorm.io/gorm"

	"orgstructure/internal/models"
)

// schemaPatches holds DDL that model tags cannot express. Every statement is
// idempotent and valid on both Postgres and SQLite.
var schemaPatches = []struct{ descr, sql string }{
	// NULL parents collapse to 0 so root departments share one scope.
	{"unique department name per parent", `CREATE UNIQUE INDEX IF NOT EXISTS ` + models.UniqueNameConstraint +
		` ON departments (COALESCE(parent_id, 0), name)`},
	{"employees by department and name", `CREATE INDEX IF NOT EXISTS idx_employees_department_full_name
		ON employees (department_id, full_name)`},
}

// Migrate creates or updates the departments and employees relations.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&models.Department{}, &models.Employee{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, p := range schemaPatches {
		if err := database.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
