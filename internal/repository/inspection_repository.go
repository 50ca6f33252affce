package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homestay-service/internal/model"
)

type InspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

func (r *InspectionRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.InspectionOrder, error) {
	var order model.InspectionOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LatestOrderByApplication returns the most recent inspection order for an
// application, completed or not.
func (r *InspectionRepository) LatestOrderByApplication(ctx context.Context, applicationID uuid.UUID) (*model.InspectionOrder, error) {
	var order model.InspectionOrder
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *InspectionRepository) GetReportByOrder(ctx context.Context, orderID uuid.UUID) (*model.InspectionReport, error) {
	var report model.InspectionReport
	if err := r.db.WithContext(ctx).First(&report, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
