package cqrs

import "github.com/safebank/bank-api/shared/models"

// ---------- Customer queries ----------

// GetCustomerQuery fetches the profile of the session's customer.
type GetCustomerQuery struct {
	CustomerID int64
}

// ---------- Account queries ----------

// GetAccountQuery fetches the composite account of one type for a customer.
type GetAccountQuery struct {
	CustomerID int64
	Type       models.AccountType
}

// ---------- Reference queries ----------

type GetUniversityQuery struct {
	ID int64
}

type GetInsuranceCompanyQuery struct {
	ID int64
}
