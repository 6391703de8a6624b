package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/model"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type propertyRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPropertyRepository(db *gorm.DB, logger *zap.Logger) repository.PropertyRepository {
	return &propertyRepository{
		db:     db,
		logger: logger,
	}
}

func propertyToEntity(m *model.Property) *entity.Property {
	if m == nil {
		return nil
	}
	p := &entity.Property{
		ID:      m.ID.String(),
		UserID:  m.UserID.String(),
		Name:    m.Name,
		Address: m.Address,
	}
	for i := range m.Suppliers {
		p.Suppliers = append(p.Suppliers, propertySupplierToEntity(&m.Suppliers[i]))
	}
	return p
}

func propertySupplierToEntity(m *model.PropertySupplier) entity.PropertySupplier {
	link := entity.PropertySupplier{
		PropertyID: m.PropertyID.String(),
		SupplierID: m.SupplierID,
		Enabled:    m.Enabled,
	}
	if m.ContractID != nil {
		link.ContractID = *m.ContractID
	}
	return link
}

func propertyToModel(e *entity.Property) (*model.Property, error) {
	id, err := parseOrNewUUID(e.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		return nil, err
	}

	m := &model.Property{
		ID:      id,
		UserID:  userID,
		Name:    e.Name,
		Address: e.Address,
	}
	for _, s := range e.Suppliers {
		m.Suppliers = append(m.Suppliers, model.PropertySupplier{
			PropertyID: id,
			SupplierID: s.SupplierID,
			ContractID: optionalString(s.ContractID),
			Enabled:    s.Enabled,
		})
	}
	return m, nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*entity.Property, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var property model.Property
	err = r.db.WithContext(ctx).Preload("Suppliers").First(&property, "id = ?", pid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return propertyToEntity(&property), nil
}

func (r *propertyRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Property, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}

	var properties []model.Property
	err = r.db.WithContext(ctx).
		Preload("Suppliers").
		Where("user_id = ?", uid).
		Order("created_at ASC").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Property, 0, len(properties))
	for i := range properties {
		result = append(result, propertyToEntity(&properties[i]))
	}
	return result, nil
}

func (r *propertyRepository) ListSuppliers(ctx context.Context, propertyID string) ([]entity.PropertySupplier, error) {
	pid, err := uuid.Parse(propertyID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var links []model.PropertySupplier
	err = r.db.WithContext(ctx).
		Where("property_id = ? AND enabled = ?", pid, true).
		Order("supplier_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	result := make([]entity.PropertySupplier, 0, len(links))
	for i := range links {
		result = append(result, propertySupplierToEntity(&links[i]))
	}
	return result, nil
}

// Save upserts the property and its supplier links.
func (r *propertyRepository) Save(ctx context.Context, property *entity.Property) error {
	m, err := propertyToModel(property)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suppliers := m.Suppliers
		m.Suppliers = nil

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "address", "updated_at"}),
		}).Create(m).Error; err != nil {
			return err
		}

		for i := range suppliers {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "property_id"}, {Name: "supplier_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"contract_id", "enabled"}),
			}).Create(&suppliers[i]).Error; err != nil {
				return err
			}
		}

		property.ID = m.ID.String()
		return nil
	})
}

func (r *propertyRepository) Delete(ctx context.Context, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", pid).Delete(&model.PropertySupplier{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Property{}, "id = ?", pid)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func parseOrNewUUID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(id)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
