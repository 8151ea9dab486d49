package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/safebank/bank-api/shared/models"
	sharedredis "github.com/safebank/bank-api/shared/redis"
)

const (
	customerViewKeyPrefix     = "customer:view:"
	customerAccountsKeyPrefix = "customer:accounts:"
)

const (
	getCustomerQuery = `
		SELECT cust_id, user_name, first_name, last_name, state, city, street, zipcode
		FROM customers
		WHERE cust_id = $1
	`
	getLoginQuery = `
		SELECT c.cust_id, c.user_name, c.first_name, c.last_name, c.state, c.city, c.street, c.zipcode,
			a.password_hash
		FROM credentials a
		JOIN customers c ON c.user_name = a.user_name
		WHERE a.user_name = $1
	`
)

// CustomerReadRepository reads customers from Redis first, then PostgreSQL.
// It also keeps the per-customer set of open account types that the
// account event subscriber maintains.
type CustomerReadRepository struct {
	db       *sql.DB
	cache    *sharedredis.ViewCache[models.CustomerView]
	accounts *sharedredis.SetIndex
}

func NewCustomerReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *CustomerReadRepository {
	return &CustomerReadRepository{
		db:       db,
		cache:    sharedredis.NewViewCache[models.CustomerView](redisClient, customerViewKeyPrefix, ttl),
		accounts: sharedredis.NewSetIndex(redisClient, customerAccountsKeyPrefix),
	}
}

// GetByID returns the profile view with its open account types filled in.
func (r *CustomerReadRepository) GetByID(ctx context.Context, id int64) (*models.CustomerView, error) {
	key := strconv.FormatInt(id, 10)

	view, ok := r.cache.Get(ctx, key)
	if !ok {
		gen, fill := r.cache.Generation(ctx, key)
		var v models.CustomerView
		err := r.db.QueryRowContext(ctx, getCustomerQuery, id).Scan(
			&v.ID, &v.UserName, &v.FirstName, &v.LastName,
			&v.Address.State, &v.Address.City, &v.Address.Street, &v.Address.Zipcode,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return nil, classify(ctx, fmt.Errorf("failed to get customer: %w", err))
		}
		if fill {
			r.cache.Fill(ctx, key, &v, gen)
		}
		view = &v
	}

	view.OpenAccountTypes = r.OpenAccountTypes(ctx, id)
	return view, nil
}

// GetForLogin returns the customer and password hash behind userName.
func (r *CustomerReadRepository) GetForLogin(ctx context.Context, userName string) (*models.Customer, *models.Credential, error) {
	var c models.Customer
	cred := models.Credential{UserName: userName}
	err := r.db.QueryRowContext(ctx, getLoginQuery, userName).Scan(
		&c.ID, &c.UserName, &c.FirstName, &c.LastName,
		&c.Address.State, &c.Address.City, &c.Address.Street, &c.Address.Zipcode,
		&cred.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("user %s: %w", userName, models.ErrNotFound)
	}
	if err != nil {
		return nil, nil, classify(ctx, fmt.Errorf("failed to look up user: %w", err))
	}
	return &c, &cred, nil
}

// CacheCustomerView stores the view without the derived account types.
func (r *CustomerReadRepository) CacheCustomerView(ctx context.Context, view *models.CustomerView) {
	stored := *view
	stored.OpenAccountTypes = nil
	r.cache.Set(ctx, strconv.FormatInt(view.ID, 10), &stored)
}

func (r *CustomerReadRepository) AddOpenAccountType(ctx context.Context, customerID int64, t models.AccountType) {
	r.accounts.Add(ctx, strconv.FormatInt(customerID, 10), string(t))
}

func (r *CustomerReadRepository) RemoveOpenAccountType(ctx context.Context, customerID int64, t models.AccountType) {
	r.accounts.Remove(ctx, strconv.FormatInt(customerID, 10), string(t))
}

// OpenAccountTypes is sorted so responses are stable.
func (r *CustomerReadRepository) OpenAccountTypes(ctx context.Context, customerID int64) []models.AccountType {
	members := r.accounts.Members(ctx, strconv.FormatInt(customerID, 10))
	sort.Strings(members)
	types := make([]models.AccountType, 0, len(members))
	for _, m := range members {
		types = append(types, models.AccountType(m))
	}
	return types
}
