package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scentlane/storefront-backend/pkg/db/models"
	"github.com/scentlane/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for the customers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertOnOrder(ctx context.Context, email, name, phone string, orderTotal decimal.Decimal) error
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context, params pagination.Params) (*CustomerPage, error)
}

// CustomerPage is one page of customers plus the cursor for the next page.
type CustomerPage struct {
	Customers  []models.Customer `json:"customers"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertOnOrder records a successful order against the customer's aggregate,
// inserting the customer on first purchase and bumping totals afterwards.
func (r *repository) UpsertOnOrder(ctx context.Context, email, name, phone string, orderTotal decimal.Decimal) error {
	candidate := models.Customer{
		ID:          uuid.New(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Name:        name,
		Phone:       phone,
		TotalOrders: 1,
		TotalSpent:  orderTotal,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":         name,
				"phone":        phone,
				"total_orders": gorm.Expr("total_orders + 1"),
				"total_spent":  gorm.Expr("total_spent + ?", orderTotal),
				"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&candidate).Error
}

// FindByEmail returns the customer aggregate, or nil when unknown.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers newest-first with cursor pagination.
func (r *repository) List(ctx context.Context, params pagination.Params) (*CustomerPage, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Customer
	err = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := &CustomerPage{Customers: rows}
	if len(rows) > normalizedLimit {
		page.Customers = rows[:normalizedLimit]
		page.HasMore = true
		last := page.Customers[len(page.Customers)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
