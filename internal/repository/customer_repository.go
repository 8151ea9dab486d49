package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safebank/bank-api/shared/models"
)

const (
	insertCredentialQuery = `INSERT INTO credentials (user_name, password_hash) VALUES ($1, $2)`
	insertCustomerQuery   = `
		INSERT INTO customers (user_name, first_name, last_name, state, city, street, zipcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING cust_id
	`
	updateCustomerQuery = `
		UPDATE customers
		SET first_name = $2, last_name = $3, state = $4, city = $5, street = $6, zipcode = $7
		WHERE cust_id = $1
	`
)

// CustomerWriteRepository handles registration and profile edits against
// PostgreSQL.
type CustomerWriteRepository struct {
	db *sql.DB
}

func NewCustomerWriteRepository(db *sql.DB) *CustomerWriteRepository {
	return &CustomerWriteRepository{db: db}
}

// Register inserts the credential and the customer in one transaction and
// sets customer.ID. A taken username yields models.ErrConflict.
func (r *CustomerWriteRepository) Register(ctx context.Context, cred *models.Credential, customer *models.Customer) error {
	err := runSteps(ctx, r.db,
		txStep{"insert credential", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, insertCredentialQuery, cred.UserName, cred.PasswordHash)
			return err
		}},
		txStep{"insert customer", func(ctx context.Context, tx *sql.Tx) error {
			return tx.QueryRowContext(ctx, insertCustomerQuery,
				customer.UserName, customer.FirstName, customer.LastName,
				customer.Address.State, customer.Address.City, customer.Address.Street, customer.Address.Zipcode,
			).Scan(&customer.ID)
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", cred.UserName, err)
	}
	return nil
}

func (r *CustomerWriteRepository) Update(ctx context.Context, customer *models.Customer) error {
	result, err := r.db.ExecContext(ctx, updateCustomerQuery,
		customer.ID, customer.FirstName, customer.LastName,
		customer.Address.State, customer.Address.City, customer.Address.Street, customer.Address.Zipcode,
	)
	if err != nil {
		return classify(ctx, fmt.Errorf("failed to update customer: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("customer %d: %w", customer.ID, models.ErrNotFound)
	}
	return nil
}
