package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/safebank/bank-api/shared/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqQueryCanceled       = "57014"
)

// txStep is one statement of a composite write. Steps run in order inside a
// single transaction; later steps may read values captured by earlier ones.
type txStep struct {
	name string
	run  func(ctx context.Context, tx *sql.Tx) error
}

// runSteps executes steps in one transaction. The first failing step rolls
// the whole transaction back and its error is returned classified.
func runSteps(ctx context.Context, db *sql.DB, steps ...txStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify(ctx, fmt.Errorf("failed to begin transaction: %w", err))
	}

	for _, step := range steps {
		if err := step.run(ctx, tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Rollback after failed step %q: %v", step.name, rbErr)
			}
			return classify(ctx, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(ctx, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// execAffecting runs query and fails with models.ErrNotFound when no row was touched.
func execAffecting(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// classify maps driver and context failures onto the model sentinels while
// keeping the original error in the chain.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", models.ErrTimeout, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %w", models.ErrConflict, err)
		case pqForeignKeyViolation, pqCheckViolation:
			return fmt.Errorf("%w: %w", models.ErrValidation, err)
		case pqQueryCanceled:
			return fmt.Errorf("%w: %w", models.ErrTimeout, err)
		}
	}
	return err
}
