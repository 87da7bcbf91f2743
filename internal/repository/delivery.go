package repository

import (
	"context"
	"order-intake/internal/model"

	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.NotificationDelivery) error
}

type deliveryRepositoryImpl struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepositoryImpl{db: db}
}

func (r *deliveryRepositoryImpl) Create(ctx context.Context, delivery *model.NotificationDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}
