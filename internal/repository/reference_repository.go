package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safebank/bank-api/shared/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenGorm wraps an existing pool so reference data shares connections with
// the composite write path.
func OpenGorm(db *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

func notFound(ctx context.Context, err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return classify(ctx, fmt.Errorf("failed to get %s: %w", what, err))
}

// GormRateRepo reads and publishes versions of rate tables.
type GormRateRepo struct {
	db *gorm.DB
}

func NewGormRateRepo(db *gorm.DB) *GormRateRepo {
	return &GormRateRepo{db: db}
}

// Current returns the newest version of rateID.
func (r *GormRateRepo) Current(ctx context.Context, rateID int64) (*models.Rate, error) {
	var rate models.Rate
	err := r.db.WithContext(ctx).Where("rate_id = ?", rateID).Order("version DESC").First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("rate table %d: %w", rateID, models.ErrRateUnavailable)
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &rate, nil
}

// Publish appends rate as the next version of rate.RateID and fills in
// rate.Version. Existing versions are never modified.
func (r *GormRateRepo) Publish(ctx context.Context, rate *models.Rate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest sql.NullInt64
		if err := tx.Model(&models.Rate{}).
			Where("rate_id = ?", rate.RateID).
			Select("MAX(version)").
			Scan(&latest).Error; err != nil {
			return err
		}
		rate.Version = int(latest.Int64) + 1
		return tx.Create(rate).Error
	})
	if err != nil {
		return classify(ctx, fmt.Errorf("failed to publish rate table %d: %w", rate.RateID, err))
	}
	return nil
}

type GormUniversityRepo struct {
	db *gorm.DB
}

func NewGormUniversityRepo(db *gorm.DB) *GormUniversityRepo {
	return &GormUniversityRepo{db: db}
}

func (r *GormUniversityRepo) Create(ctx context.Context, u *models.University) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (r *GormUniversityRepo) List(ctx context.Context) ([]models.University, error) {
	var out []models.University
	if err := r.db.WithContext(ctx).Order("univ_id").Find(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func (r *GormUniversityRepo) Get(ctx context.Context, id int64) (*models.University, error) {
	var u models.University
	if err := r.db.WithContext(ctx).First(&u, "univ_id = ?", id).Error; err != nil {
		return nil, notFound(ctx, err, fmt.Sprintf("university %d", id))
	}
	return &u, nil
}

func (r *GormUniversityRepo) Update(ctx context.Context, u *models.University) error {
	res := r.db.WithContext(ctx).Model(&models.University{}).
		Where("univ_id = ?", u.ID).
		Update("univ_name", u.Name)
	if res.Error != nil {
		return classify(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("university %d: %w", u.ID, models.ErrNotFound)
	}
	return nil
}

type GormInsuranceCompanyRepo struct {
	db *gorm.DB
}

func NewGormInsuranceCompanyRepo(db *gorm.DB) *GormInsuranceCompanyRepo {
	return &GormInsuranceCompanyRepo{db: db}
}

func (r *GormInsuranceCompanyRepo) Create(ctx context.Context, ic *models.InsuranceCompany) error {
	if err := r.db.WithContext(ctx).Create(ic).Error; err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (r *GormInsuranceCompanyRepo) List(ctx context.Context) ([]models.InsuranceCompany, error) {
	var out []models.InsuranceCompany
	if err := r.db.WithContext(ctx).Order("ic_id").Find(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func (r *GormInsuranceCompanyRepo) Get(ctx context.Context, id int64) (*models.InsuranceCompany, error) {
	var ic models.InsuranceCompany
	if err := r.db.WithContext(ctx).First(&ic, "ic_id = ?", id).Error; err != nil {
		return nil, notFound(ctx, err, fmt.Sprintf("insurance company %d", id))
	}
	return &ic, nil
}

func (r *GormInsuranceCompanyRepo) Update(ctx context.Context, ic *models.InsuranceCompany) error {
	res := r.db.WithContext(ctx).Model(&models.InsuranceCompany{}).
		Where("ic_id = ?", ic.ID).
		Updates(map[string]any{
			"ic_name": ic.Name,
			"state":   ic.State,
			"city":    ic.City,
			"street":  ic.Street,
			"zipcode": ic.Zipcode,
		})
	if res.Error != nil {
		return classify(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("insurance company %d: %w", ic.ID, models.ErrNotFound)
	}
	return nil
}
