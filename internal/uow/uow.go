// Package uow owns the transaction boundary of one service operation: every
// repository handed to the caller runs on the same transaction, which is
// committed on success and rolled back on every other exit path.
package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"orgstructure/internal/apperror"
	"orgstructure/internal/models"
	"orgstructure/internal/repository"
)

const pgUniqueViolation = "23505"

// Repositories aggregates every repository available inside one transaction.
type Repositories struct {
	Departments repository.DepartmentRepository
	Employees   repository.EmployeeRepository
}

// UnitOfWork runs fn inside a transaction. A non-nil error from fn or from the
// commit leaves no persisted effect and is returned as a domain error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
	Read(ctx context.Context, fn func(repos Repositories) error) error
}

type Option func(*GormUnitOfWork)

// WithReadOptions sets the transaction options used by Read, e.g. repeatable
// read so a subtree is fetched from one snapshot.
func WithReadOptions(opts *sql.TxOptions) Option {
	return func(u *GormUnitOfWork) {
		u.readOpts = opts
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(u *GormUnitOfWork) {
		u.logger = logger
	}
}

type GormUnitOfWork struct {
	db       *gorm.DB
	readOpts *sql.TxOptions
	logger   zerolog.Logger
}

func New(db *gorm.DB, opts ...Option) *GormUnitOfWork {
	u := &GormUnitOfWork{
		db:     db,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(repos Repositories) error) error {
	return u.run(ctx, nil, fn)
}

func (u *GormUnitOfWork) Read(ctx context.Context, fn func(repos Repositories) error) error {
	return u.run(ctx, u.readOpts, fn)
}

func (u *GormUnitOfWork) run(ctx context.Context, opts *sql.TxOptions, fn func(repos Repositories) error) (err error) {
	tx := u.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return apperror.StorageFailure(fmt.Errorf("begin transaction: %w", tx.Error))
	}

	done := false
	defer func() {
		if done {
			return
		}
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			u.logger.Error().Err(rbErr).Msg("rollback failed")
		}
	}()

	if err := fn(Repositories{
		Departments: repository.NewDepartmentRepository(tx),
		Employees:   repository.NewEmployeeRepository(tx),
	}); err != nil {
		return Translate(err)
	}

	// A failed commit has already ended the transaction.
	done = true
	if err := tx.Commit().Error; err != nil {
		return Translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Translate maps a storage error onto the domain error kinds. Domain errors
// pass through unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("department not found")
	}

	if isUniqueNameViolation(err) {
		return apperror.DuplicateName("department name must be unique under the same parent")
	}

	return apperror.StorageFailure(err)
}

func isUniqueNameViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == models.UniqueNameConstraint
	}
	// Drivers without structured errors (SQLite) name the index in the message.
	return strings.Contains(err.Error(), models.UniqueNameConstraint)
}
