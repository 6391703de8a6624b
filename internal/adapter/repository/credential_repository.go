package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/model"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func credentialToEntity(m *model.SupplierCredential) *entity.Credential {
	return &entity.Credential{
		ID:             m.ID.String(),
		UserID:         m.UserID.String(),
		SupplierID:     m.SupplierID,
		UsernameCipher: m.UsernameCipher,
		UsernameIV:     m.UsernameIV,
		PasswordCipher: m.PasswordCipher,
		PasswordIV:     m.PasswordIV,
		UpdatedAt:      m.UpdatedAt,
	}
}

func credentialToModel(e *entity.Credential) (*model.SupplierCredential, error) {
	id, err := parseOrNewUUID(e.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		return nil, err
	}
	return &model.SupplierCredential{
		ID:             id,
		UserID:         userID,
		SupplierID:     e.SupplierID,
		UsernameCipher: e.UsernameCipher,
		UsernameIV:     e.UsernameIV,
		PasswordCipher: e.PasswordCipher,
		PasswordIV:     e.PasswordIV,
		UpdatedAt:      e.UpdatedAt,
	}, nil
}

func (r *credentialRepository) Get(ctx context.Context, userID, supplierID string) (*entity.Credential, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var cred model.SupplierCredential
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND supplier_id = ?", uid, supplierID).
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return credentialToEntity(&cred), nil
}

func (r *credentialRepository) Save(ctx context.Context, credential *entity.Credential) error {
	m, err := credentialToModel(credential)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "supplier_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username_cipher", "username_iv", "password_cipher", "password_iv", "updated_at",
		}),
	}).Create(m).Error
}
