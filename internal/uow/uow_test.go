package uow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"orgstructure/internal/apperror"
	"orgstructure/internal/db/dbtest"
	"orgstructure/internal/models"
	"orgstructure/internal/repository"
)

func newMockUnitOfWork(t *testing.T) (*GormUnitOfWork, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return New(database), mock
}

func countDepartments(t *testing.T, database *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, database.Model(&models.Department{}).Count(&count).Error)
	return count
}

func TestDo_CommitsOnSuccess(t *testing.T) {
	database := dbtest.Open(t)
	unit := New(database)

	err := unit.Do(context.Background(), func(repos Repositories) error {
		return repos.Departments.Add(context.Background(), &models.Department{Name: "Engineering"})
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countDepartments(t, database))
}

func TestDo_RollsBackOnError(t *testing.T) {
	database := dbtest.Open(t)
	unit := New(database)
	failure := errors.New("validation failed later")

	err := unit.Do(context.Background(), func(repos Repositories) error {
		if err := repos.Departments.Add(context.Background(), &models.Department{Name: "Engineering"}); err != nil {
			return err
		}
		return failure
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, apperror.CodeStorageFailure, apperror.GetCode(err))
	assert.Zero(t, countDepartments(t, database))
}

func TestDo_RollsBackOnPanic(t *testing.T) {
	database := dbtest.Open(t)
	unit := New(database)

	assert.Panics(t, func() {
		_ = unit.Do(context.Background(), func(repos Repositories) error {
			_ = repos.Departments.Add(context.Background(), &models.Department{Name: "Engineering"})
			panic("boom")
		})
	})
	assert.Zero(t, countDepartments(t, database))
}

func TestDo_PassesDomainErrorsThrough(t *testing.T) {
	unit := New(dbtest.Open(t))

	err := unit.Do(context.Background(), func(Repositories) error {
		return apperror.Cycle("department cycle detected")
	})
	assert.Equal(t, apperror.CodeCycle, apperror.GetCode(err))
}

func TestDo_MapsUniqueIndexViolation(t *testing.T) {
	database := dbtest.Open(t)
	require.NoError(t, database.Create(&models.Department{Name: "Engineering"}).Error)
	unit := New(database)

	err := unit.Do(context.Background(), func(repos Repositories) error {
		return repos.Departments.Add(context.Background(), &models.Department{Name: "Engineering"})
	})
	assert.Equal(t, apperror.CodeDuplicateName, apperror.GetCode(err))
	assert.EqualValues(t, 1, countDepartments(t, database))
}

func TestRead_SeesCommittedState(t *testing.T) {
	database := dbtest.Open(t)
	require.NoError(t, database.Create(&models.Department{Name: "Engineering"}).Error)
	unit := New(database)

	var found bool
	err := unit.Read(context.Background(), func(repos Repositories) error {
		exists, err := repos.Departments.SiblingNameExists(context.Background(), nil, "Engineering", nil)
		found = exists
		return err
	})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDo_MapsCommitTimeUniqueViolation(t *testing.T) {
	unit, mock := newMockUnitOfWork(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: models.UniqueNameConstraint,
		Message:        "duplicate key value violates unique constraint",
	})

	err := unit.Do(context.Background(), func(Repositories) error { return nil })
	assert.Equal(t, apperror.CodeDuplicateName, apperror.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_OtherIntegrityViolationIsStorageFailure(t *testing.T) {
	unit, mock := newMockUnitOfWork(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{
		Code:           "23503",
		ConstraintName: "fk_departments_employees",
	})

	err := unit.Do(context.Background(), func(Repositories) error { return nil })
	assert.Equal(t, apperror.CodeStorageFailure, apperror.GetCode(err))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_RollsBackWhenCallbackFails(t *testing.T) {
	unit, mock := newMockUnitOfWork(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := unit.Do(context.Background(), func(Repositories) error {
		return repository.ErrNotFound
	})
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_BeginFailure(t *testing.T) {
	unit, mock := newMockUnitOfWork(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := unit.Do(context.Background(), func(Repositories) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.Equal(t, apperror.CodeStorageFailure, apperror.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Code
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("load: %w", repository.ErrNotFound), apperror.CodeNotFound},
		{"named unique index in message", errors.New("UNIQUE constraint failed: index '" + models.UniqueNameConstraint + "'"), apperror.CodeDuplicateName},
		{"other unique constraint", &pgconn.PgError{Code: "23505", ConstraintName: "employees_pkey"}, apperror.CodeStorageFailure},
		{"cancelled", context.Canceled, apperror.CodeStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.GetCode(Translate(tt.err)))
		})
	}
}
