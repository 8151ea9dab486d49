package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one version of a rate table. Open reads the newest version of the
// configured rate table; publishing a change appends a version.
type Rate struct {
	RateID        int64           `gorm:"primaryKey;column:rate_id;autoIncrement:false" json:"rate_id"`
	Version       int             `gorm:"primaryKey;column:version;autoIncrement:false" json:"version"`
	ServiceCharge decimal.Decimal `gorm:"column:service_charge;type:numeric(6,2);not null" json:"service_charge"`
	InterestRate  decimal.Decimal `gorm:"column:interest_rate;type:numeric(5,2);not null" json:"interest_rate"`
	LoanRate      decimal.Decimal `gorm:"column:loan_rate;type:numeric(5,2);not null" json:"loan_rate"`
	EffectiveAt   time.Time       `gorm:"column:effective_at;not null" json:"effective_at"`
}

func (Rate) TableName() string { return "account_rates" }

func (r *Rate) View() *RateView {
	return &RateView{
		RateID:        r.RateID,
		Version:       r.Version,
		ServiceCharge: r.ServiceCharge,
		InterestRate:  r.InterestRate,
		LoanRate:      r.LoanRate,
		EffectiveAt:   r.EffectiveAt,
	}
}

type University struct {
	ID   int64  `gorm:"primaryKey;column:univ_id" json:"univ_id"`
	Name string `gorm:"column:univ_name;not null" json:"univ_name"`
}

func (University) TableName() string { return "universities" }

type InsuranceCompany struct {
	ID      int64  `gorm:"primaryKey;column:ic_id" json:"ic_id"`
	Name    string `gorm:"column:ic_name;not null" json:"ic_name"`
	State   string `gorm:"column:state" json:"state"`
	City    string `gorm:"column:city" json:"city"`
	Street  string `gorm:"column:street" json:"street"`
	Zipcode string `gorm:"column:zipcode" json:"zipcode"`
}

func (InsuranceCompany) TableName() string { return "insurance_companies" }
