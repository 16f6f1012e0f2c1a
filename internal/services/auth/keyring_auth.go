package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(tool string, token string) error {
	return keyring.Set(k.serviceName, NormalizeTool(tool), token)
}

func (k *KeyringStore) GetToken(tool string) (string, error) {
	token, err := keyring.Get(k.serviceName, NormalizeTool(tool))
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken(tool string) error {
	err := keyring.Delete(k.serviceName, NormalizeTool(tool))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
