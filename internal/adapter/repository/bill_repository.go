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
)

type billRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBillRepository(db *gorm.DB, logger *zap.Logger) repository.BillRepository {
	return &billRepository{
		db:     db,
		logger: logger,
	}
}

func billToEntity(m *model.Bill) *entity.Bill {
	return &entity.Bill{
		ID:            m.ID.String(),
		PropertyID:    m.PropertyID.String(),
		SupplierID:    m.SupplierID,
		BillNumber:    derefString(m.BillNumber),
		Category:      m.Category,
		Description:   m.Description,
		Amount:        m.Amount,
		Currency:      m.Currency,
		DueDate:       m.DueDate,
		IssueDate:     m.IssueDate,
		ContractID:    derefString(m.ContractID),
		IBAN:          derefString(m.IBAN),
		Status:        entity.BillStatus(m.Status),
		AttachmentKey: derefString(m.AttachmentKey),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func billToModel(e *entity.Bill) (*model.Bill, error) {
	id, err := parseOrNewUUID(e.ID)
	if err != nil {
		return nil, err
	}
	propertyID, err := uuid.Parse(e.PropertyID)
	if err != nil {
		return nil, err
	}

	return &model.Bill{
		ID:            id,
		PropertyID:    propertyID,
		SupplierID:    e.SupplierID,
		BillNumber:    optionalString(e.BillNumber),
		Category:      e.Category,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		DueDate:       e.DueDate,
		IssueDate:     e.IssueDate,
		ContractID:    optionalString(e.ContractID),
		IBAN:          optionalString(e.IBAN),
		Status:        model.BillStatus(e.Status),
		AttachmentKey: optionalString(e.AttachmentKey),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}, nil
}

func (r *billRepository) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	bid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var bill model.Bill
	if err := r.db.WithContext(ctx).First(&bill, "id = ?", bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return billToEntity(&bill), nil
}

func (r *billRepository) ListByProperty(ctx context.Context, propertyID string) ([]*entity.Bill, error) {
	pid, err := uuid.Parse(propertyID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var bills []model.Bill
	err = r.db.WithContext(ctx).
		Where("property_id = ?", pid).
		Order("due_date DESC NULLS LAST, created_at DESC").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Bill, 0, len(bills))
	for i := range bills {
		result = append(result, billToEntity(&bills[i]))
	}
	return result, nil
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	m, err := billToModel(bill)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		r.logger.Error("Failed to create bill",
			zap.String("property_id", bill.PropertyID),
			zap.String("supplier_id", bill.SupplierID),
			zap.Error(err),
		)
		return err
	}
	*bill = *billToEntity(m)
	return nil
}

func (r *billRepository) Update(ctx context.Context, bill *entity.Bill) error {
	m, err := billToModel(bill)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&model.Bill{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"bill_number":    m.BillNumber,
		"category":       m.Category,
		"description":    m.Description,
		"amount":         m.Amount,
		"currency":       m.Currency,
		"due_date":       m.DueDate,
		"issue_date":     m.IssueDate,
		"contract_id":    m.ContractID,
		"iban":           m.IBAN,
		"status":         m.Status,
		"attachment_key": m.AttachmentKey,
		"updated_at":     gorm.Expr("now()"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *billRepository) Delete(ctx context.Context, id string) error {
	bid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrNotFound
	}
	result := r.db.WithContext(ctx).Delete(&model.Bill{}, "id = ?", bid)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
