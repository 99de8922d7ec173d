package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/lib/pq"
)

// UnitOfWork runs each operation in one SERIALIZABLE transaction. Two
// routine submissions racing on one (workstation, quarter) either serialize
// or one of them fails with maintenance.ErrStorageConflict.
type UnitOfWork struct {
	DB        *sqlx.DB
	TxOptions *sql.TxOptions
}

func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{
		DB:        db,
		TxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
	}
}

func storesFor(db sqlx.ExtContext) maintenance.Stores {
	return maintenance.Stores{
		Reports: NewReportRepository(db),
		Assets:  NewAssetRepository(db),
		Log:     NewServiceLogRepository(db),
	}
}

func (u *UnitOfWork) Reader() maintenance.Stores {
	return storesFor(u.DB)
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s maintenance.Stores) error) error {
	tx, err := u.DB.BeginTxx(ctx, u.TxOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, storesFor(tx)); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %v", maintenance.ErrStorageConflict, err)
		}
		return fmt.Errorf("%w: %v", maintenance.ErrOutcomeUnknown, err)
	}
	return nil
}

// classify maps engine-level conflicts to ErrStorageConflict and leaves
// domain errors untouched.
func classify(err error) error {
	if isConflict(err) {
		return fmt.Errorf("%w: %v", maintenance.ErrStorageConflict, err)
	}
	return err
}

// isConflict reports SQLSTATE class 40 (transaction rollback), which covers
// serialization_failure (40001) and deadlock_detected (40P01).
func isConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "40"
	}
	return false
}
