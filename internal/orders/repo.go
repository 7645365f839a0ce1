package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	SetPaymentReference(ctx context.Context, orderID uuid.UUID, reference string) error
	ClaimPaymentCompleted(ctx context.Context, reference string, paidAt time.Time) (int64, error)
	MarkPaymentFailed(ctx context.Context, reference string) (int64, error)
	UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (int64, error)
	HasOutletItems(ctx context.Context, orderID, outletID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderListFilters) (*OrderList, error)
	ListForOutlet(ctx context.Context, outletID uuid.UUID, params pagination.Params, filters OrderListFilters) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters OrderListFilters) (*OrderList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) SetPaymentReference(ctx context.Context, orderID uuid.UUID, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_reference": reference,
			"updated_at":        time.Now().UTC(),
		}).Error
}

// ClaimPaymentCompleted flips payment_status pending→completed for the
// reference. The WHERE clause makes the claim exactly-once: a second
// confirmation of the same reference matches zero rows.
func (r *repository) ClaimPaymentCompleted(ctx context.Context, reference string, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_reference = ? AND payment_status = ?", reference, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"paid_at":        paidAt,
			"updated_at":     time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) MarkPaymentFailed(ctx context.Context, reference string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_reference = ? AND payment_status = ?", reference, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// UpdateStatusFrom applies a status transition conditioned on the
// current persisted status, so two concurrent incompatible transitions
// cannot both succeed.
func (r *repository) UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) HasOutletItems(ctx context.Context, orderID, outletID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND outlet_id = ?", orderID, outletID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.listOrders(ctx, query, params, filters)
}

func (r *repository) ListForOutlet(ctx context.Context, outletID uuid.UUID, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.outlet_id = ?)", outletID)
	return r.listOrders(ctx, query, params, filters)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	return r.listOrders(ctx, query, params, filters)
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &OrderList{Orders: dtos, NextCursor: nextCursor}, nil
}
