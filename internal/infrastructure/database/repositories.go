package database

import (
	"github.com/wekeepgrowing/billsync/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/billsync/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Property   domainRepo.PropertyRepository
	Bill       domainRepo.BillRepository
	Credential domainRepo.CredentialRepository
	Currency   domainRepo.CurrencyRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Property:   repository.NewPropertyRepository(db, logger),
		Bill:       repository.NewBillRepository(db, logger),
		Credential: repository.NewCredentialRepository(db),
		Currency:   repository.NewCurrencyRepository(db),
	}
}
