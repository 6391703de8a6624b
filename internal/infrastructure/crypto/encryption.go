package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

// EncryptionService seals short secrets. The associated data binds a
// ciphertext to its owner; opening with different data fails.
type EncryptionService interface {
	Encrypt(plaintext string, associated []byte) (ciphertext, iv string, err error)
	Decrypt(ciphertext, iv string, associated []byte) (plaintext string, err error)
}

type AESEncryptionService struct {
	gcm cipher.AEAD
}

func NewAESEncryptionService(hexKey string) (*AESEncryptionService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESEncryptionService{gcm: gcm}, nil
}

func (s *AESEncryptionService) Encrypt(plaintext string, associated []byte) (string, string, error) {
	iv := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}

	ciphertext := s.gcm.Seal(nil, iv, []byte(plaintext), associated)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(iv),
		nil
}

func (s *AESEncryptionService) Decrypt(ciphertextB64, ivB64 string, associated []byte) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", err
	}

	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", err
	}
	if len(iv) != s.gcm.NonceSize() {
		return "", errors.New("invalid iv length")
	}

	plaintext, err := s.gcm.Open(nil, iv, ciphertext, associated)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
