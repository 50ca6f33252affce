package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homestay-service/internal/model"
)

// ErrStaleRecord means the optimistic updated_at check failed: another
// reviewer transitioned the application between our read and write.
var ErrStaleRecord = errors.New("application was modified concurrently")

var serviceRequestKinds = []model.ApplicationKind{
	model.KindAddRooms,
	model.KindDeleteRooms,
	model.KindCancelCertificate,
	model.KindChangeCategory,
	model.KindRenewal,
}

var terminalStatuses = []model.ApplicationStatus{
	model.StatusApproved,
	model.StatusRejected,
	model.StatusSuperseded,
	model.StatusRevoked,
	model.StatusCertificateCancelled,
}

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

type ApplicationFilter struct {
	OwnerID      *uuid.UUID
	DistrictCode string
	Statuses     []model.ApplicationStatus
	Kinds        []model.ApplicationKind
	Limit        int
	Offset       int
}

func (r *ApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	query := r.db.WithContext(ctx).Model(&model.Application{})

	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.DistrictCode != "" {
		query = query.Where("district_code = ?", filter.DistrictCode)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Kinds) > 0 {
		query = query.Where("kind IN ?", filter.Kinds)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var apps []model.Application
	if err := query.Order("updated_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

// FindApprovedParent locates the owner's current approved registration that
// a service request can attach to.
func (r *ApplicationRepository) FindApprovedParent(ctx context.Context, ownerID uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND kind IN ?", ownerID, model.StatusApproved,
			[]model.ApplicationKind{model.KindNewRegistration, model.KindRenewal, model.KindLegacyRC}).
		Order("approved_at DESC").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindOpenServiceRequest returns the owner's non-terminal service request,
// if any. At most one may be open at a time.
func (r *ApplicationRepository) FindOpenServiceRequest(ctx context.Context, ownerID uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind IN ? AND status NOT IN ?", ownerID, serviceRequestKinds, terminalStatuses).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindActiveNewRegistration returns another in-flight new registration for
// the owner, excluding the given application.
func (r *ApplicationRepository) FindActiveNewRegistration(ctx context.Context, ownerID, excludeID uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND id <> ? AND status NOT IN ? AND status <> ?",
			ownerID, model.KindNewRegistration, excludeID, terminalStatuses, model.StatusDraft).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// NextApplicationNumber allocates a district-routed human-readable number,
// e.g. HS/SML/2026/000042.
func (r *ApplicationRepository) NextApplicationNumber(ctx context.Context, districtCode string, year int) (string, error) {
	prefix := fmt.Sprintf("HS/%s/%d/", districtCode, year)
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("application_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}

// NextCertificateNumber allocates a district-routed certificate number,
// e.g. HSRC/SML/2026/000007.
func (r *ApplicationRepository) NextCertificateNumber(ctx context.Context, districtCode string, year int) (string, error) {
	prefix := fmt.Sprintf("HSRC/%s/%d/", districtCode, year)
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("certificate_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}

// DecisionWrite is everything one transition persists. Status mutation and
// audit insertion commit in the same transaction; a transition that changed
// status without its audit row would be a correctness bug.
type DecisionWrite struct {
	Application       *model.Application
	ExpectedUpdatedAt time.Time
	Audit             *model.ApplicationAction
	Parent            *model.Application
	CompletedOrder    *model.InspectionOrder
	NewOrder          *model.InspectionOrder
	Report            *model.InspectionReport
}

func (r *ApplicationRepository) ApplyDecision(ctx context.Context, write DecisionWrite) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Application{}).
			Where("id = ? AND updated_at = ?", write.Application.ID, write.ExpectedUpdatedAt).
			Select("*").
			Omit("id", "created_at").
			Updates(write.Application)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleRecord
		}

		if err := tx.Create(write.Audit).Error; err != nil {
			return err
		}

		if write.Parent != nil {
			if err := tx.Model(&model.Application{}).
				Where("id = ?", write.Parent.ID).
				Select("status", "current_stage", "certificate_expiry_date", "updated_at").
				Updates(write.Parent).Error; err != nil {
				return err
			}
		}
		if write.CompletedOrder != nil {
			if err := tx.Model(&model.InspectionOrder{}).
				Where("id = ?", write.CompletedOrder.ID).
				Update("status", write.CompletedOrder.Status).Error; err != nil {
				return err
			}
		}
		if write.NewOrder != nil {
			if err := tx.Create(write.NewOrder).Error; err != nil {
				return err
			}
		}
		if write.Report != nil {
			if err := tx.Create(write.Report).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ApplicationRepository) ListActions(ctx context.Context, applicationID uuid.UUID) ([]model.ApplicationAction, error) {
	var actions []model.ApplicationAction
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
