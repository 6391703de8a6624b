package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billsync/internal/domain/errors"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
)

// CredentialVault stores supplier logins encrypted at rest.
type CredentialVault struct {
	repo   repository.CredentialRepository
	cipher EncryptionService
}

func NewCredentialVault(repo repository.CredentialRepository, cipher EncryptionService) *CredentialVault {
	return &CredentialVault{repo: repo, cipher: cipher}
}

// Open returns the plaintext login of userID for supplierID. A missing
// record or one that no longer decrypts is reported as CREDENTIAL_MISSING.
func (v *CredentialVault) Open(ctx context.Context, userID, supplierID string) (string, string, error) {
	cred, err := v.repo.Get(ctx, userID, supplierID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", domainErrors.NewCredentialMissingError(supplierID, err)
		}
		return "", "", fmt.Errorf("failed to load credential: %w", err)
	}

	ad := associatedData(userID, supplierID)
	username, err := v.cipher.Decrypt(cred.UsernameCipher, cred.UsernameIV, ad)
	if err != nil {
		return "", "", domainErrors.NewCredentialMissingError(supplierID, fmt.Errorf("username: %w", err))
	}
	password, err := v.cipher.Decrypt(cred.PasswordCipher, cred.PasswordIV, ad)
	if err != nil {
		return "", "", domainErrors.NewCredentialMissingError(supplierID, fmt.Errorf("password: %w", err))
	}
	return username, password, nil
}

// Seal encrypts and stores a login, replacing any previous one.
func (v *CredentialVault) Seal(ctx context.Context, userID, supplierID, username, password string) error {
	ad := associatedData(userID, supplierID)
	userCipher, userIV, err := v.cipher.Encrypt(username, ad)
	if err != nil {
		return fmt.Errorf("failed to encrypt username: %w", err)
	}
	passCipher, passIV, err := v.cipher.Encrypt(password, ad)
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	id := uuid.NewString()
	if existing, err := v.repo.Get(ctx, userID, supplierID); err == nil {
		id = existing.ID
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to load credential: %w", err)
	}

	return v.repo.Save(ctx, &entity.Credential{
		ID:             id,
		UserID:         userID,
		SupplierID:     supplierID,
		UsernameCipher: userCipher,
		UsernameIV:     userIV,
		PasswordCipher: passCipher,
		PasswordIV:     passIV,
		UpdatedAt:      time.Now().UTC(),
	})
}

func associatedData(userID, supplierID string) []byte {
	return []byte(userID + "\x00" + supplierID)
}
