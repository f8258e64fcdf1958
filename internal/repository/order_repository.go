package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the order-store contract the gateway relies on. Status
// transitions carry their audit note in the same transaction so a
// reconciliation outcome is committed wholesale or not at all.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	List(ctx context.Context, page PageRequest) (PageResult[domain.Order], error)
	MarkFailed(ctx context.Context, order *domain.Order, reason string) error
	MarkCompleted(ctx context.Context, order *domain.Order, note string) error
	MarkCancelled(ctx context.Context, order *domain.Order, note string) error
	AppendNote(ctx context.Context, order *domain.Order, note string) error
	SetMetadata(ctx context.Context, order *domain.Order, key, value string) error
}

type GormOrderRepository struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) List(ctx context.Context, page PageRequest) (PageResult[domain.Order], error) {
	page = normalizePageRequest(page)
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&total).Error; err != nil {
		return PageResult[domain.Order]{}, err
	}
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("id desc").
		Offset((page.Page - 1) * page.PageSize).
		Limit(page.PageSize).
		Find(&orders).Error
	if err != nil {
		return PageResult[domain.Order]{}, err
	}
	return PageResult[domain.Order]{
		Items:      orders,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

func (r *GormOrderRepository) MarkFailed(ctx context.Context, order *domain.Order, reason string) error {
	return r.transition(ctx, order, domain.OrderStatusFailed, reason, nil)
}

func (r *GormOrderRepository) MarkCompleted(ctx context.Context, order *domain.Order, note string) error {
	now := time.Now().UTC()
	return r.transition(ctx, order, domain.OrderStatusCompleted, note, &now)
}

func (r *GormOrderRepository) MarkCancelled(ctx context.Context, order *domain.Order, note string) error {
	return r.transition(ctx, order, domain.OrderStatusCancelled, note, nil)
}

func (r *GormOrderRepository) transition(ctx context.Context, order *domain.Order, status domain.OrderStatus, note string, paidAt *time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if paidAt != nil {
			updates["paid_at"] = *paidAt
		}
		res := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		if note != "" {
			return tx.Create(&domain.OrderNote{OrderID: order.ID, Note: note}).Error
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Status = status
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	if note != "" {
		order.Notes = append(order.Notes, domain.OrderNote{OrderID: order.ID, Note: note})
	}
	return nil
}

func (r *GormOrderRepository) AppendNote(ctx context.Context, order *domain.Order, note string) error {
	rec := domain.OrderNote{OrderID: order.ID, Note: note}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	order.Notes = append(order.Notes, rec)
	return nil
}

func (r *GormOrderRepository) SetMetadata(ctx context.Context, order *domain.Order, key, value string) error {
	meta := order.Metadata
	if meta == nil {
		meta = datatypes.JSONMap{}
	}
	meta[key] = value
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", order.ID).Update("metadata", meta)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	order.Metadata = meta
	return nil
}
