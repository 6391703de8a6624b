package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/billsync/internal/domain/model"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	"gorm.io/gorm"
)

type currencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) repository.CurrencyRepository {
	return &currencyRepository{db: db}
}

// DefaultCurrency returns the user's preferred currency, or "" when unset.
func (r *currencyRepository) DefaultCurrency(ctx context.Context, userID string) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", nil
	}

	var settings model.UserSettings
	err = r.db.WithContext(ctx).Select("default_currency").First(&settings, "user_id = ?", uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return settings.DefaultCurrency, nil
}
