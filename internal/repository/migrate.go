package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// DefaultRate seeds a rate table that has no versions yet.
var DefaultRate = struct {
	ServiceCharge decimal.Decimal
	InterestRate  decimal.Decimal
	LoanRate      decimal.Decimal
}{
	ServiceCharge: decimal.RequireFromString("12.00"),
	InterestRate:  decimal.RequireFromString("0.50"),
	LoanRate:      decimal.RequireFromString("1.50"),
}

const seedRateQuery = `
	INSERT INTO account_rates (rate_id, version, service_charge, interest_rate, loan_rate)
	SELECT $1, 1, $2, $3, $4
	WHERE NOT EXISTS (SELECT 1 FROM account_rates WHERE rate_id = $1)
`

// Migrate applies the embedded schema and makes sure rateID has a version.
// Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB, rateID int64) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	res, err := db.ExecContext(ctx, seedRateQuery, rateID,
		DefaultRate.ServiceCharge, DefaultRate.InterestRate, DefaultRate.LoanRate)
	if err != nil {
		return fmt.Errorf("failed to seed rate table %d: %w", rateID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("Seeded rate table %d with default version", rateID)
	}
	return nil
}
