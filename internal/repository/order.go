package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kimora-storefront/internal/model"
)

type OrderRepository interface {
	// CreateIgnoreDuplicate inserts an order keyed by its checkout session
	// id. Returns false when a concurrent or earlier delivery won the race;
	// that is success, not failure.
	CreateIgnoreDuplicate(ctx context.Context, order *model.Order) (bool, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	BackfillCustomerID(ctx context.Context, sessionID, customerID string) error
	// CreateItemIgnoreDuplicate inserts a line item, absorbing conflicts on
	// either of the item's unique keys.
	CreateItemIgnoreDuplicate(ctx context.Context, item *model.OrderItem) (bool, error)
	CountItems(ctx context.Context, orderID uint) (int64, error)
	// LatestCustomerIDByEmail returns the Stripe customer id of the most
	// recent order for an email, or "" when there is none.
	LatestCustomerIDByEmail(ctx context.Context, email string) (string, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) CreateIgnoreDuplicate(ctx context.Context, order *model.Order) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_checkout_session_id"}},
			DoNothing: true,
		}).
		Create(order)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("stripe_checkout_session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) BackfillCustomerID(ctx context.Context, sessionID, customerID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("stripe_checkout_session_id = ?", sessionID).
		Update("stripe_customer_id", customerID).Error
}

func (r *orderRepoImpl) CreateItemIgnoreDuplicate(ctx context.Context, item *model.OrderItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepoImpl) CountItems(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error

	return count, err
}

func (r *orderRepoImpl) LatestCustomerIDByEmail(ctx context.Context, email string) (string, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", email).
		Order("created_at DESC, id DESC").
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if order.StripeCustomerID == nil {
		return "", nil
	}

	return *order.StripeCustomerID, nil
}
