package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
)

// AdminDirectory resolves the institutional admins for an institution.
type AdminDirectory interface {
	InstitutionalAdminIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error)
}

type gormDirectory struct {
	db *gorm.DB
}

// NewAdminDirectory returns a profile-backed admin directory.
func NewAdminDirectory(db *gorm.DB) AdminDirectory {
	return &gormDirectory{db: db}
}

// InstitutionalAdminIDs returns every institutional_admin profile for the
// institution. Zero admins is a hard resolution failure so the caller's
// runtime retries instead of silently notifying nobody.
func (d *gormDirectory) InstitutionalAdminIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error) {
	if institutionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "institution id required")
	}

	var ids []uuid.UUID
	err := d.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("role = ? AND institution_id = ?", enums.RoleInstitutionalAdmin, institutionID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query institutional admins")
	}
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no institutional admins found for institution")
	}
	return ids, nil
}
