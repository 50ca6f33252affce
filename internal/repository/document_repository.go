package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homestay-service/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.ApplicationDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.ApplicationDocument, error) {
	var docs []model.ApplicationDocument
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountPending returns how many documents still await verification; the
// forward-to-DTDO guard refuses while this is non-zero.
func (r *DocumentRepository) CountPending(ctx context.Context, applicationID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ApplicationDocument{}).
		Where("application_id = ? AND verification = ?", applicationID, model.DocumentPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ApplicationDocument, error) {
	var doc model.ApplicationDocument
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) SetVerification(ctx context.Context, id uuid.UUID, verification model.DocumentVerification, verifiedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ApplicationDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification": verification,
			"verified_by":  verifiedBy,
		}).Error
}
