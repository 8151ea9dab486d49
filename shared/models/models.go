package models

import "time"

type Address struct {
	State   string `json:"state" validate:"required,max=2"`
	City    string `json:"city" validate:"required,max=30"`
	Street  string `json:"street" validate:"required,max=30"`
	Zipcode string `json:"zipcode" validate:"required,max=5"`
}

// Customer is the profile half of a registered user. Credential holds the other half.
type Customer struct {
	ID        int64   `json:"cust_id"`
	UserName  string  `json:"user_name"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Address   Address `json:"address"`
}

type Credential struct {
	UserName     string `json:"user_name"`
	PasswordHash string `json:"-"`
}

// Account is the row shared by every composite account, keyed by (CustomerID, Type).
type Account struct {
	CustomerID     int64       `json:"-"`
	Type           AccountType `json:"acct_type"`
	Number         string      `json:"acct_no"`
	Name           string      `json:"acct_name"`
	DateOpened     time.Time   `json:"acct_date_opened"`
	BillingAddress Address     `json:"billing_address"`
}
