package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// ErrKeyNotFound is returned by a Keyring when no key is stored for a provider.
var ErrKeyNotFound = errors.New("key not found in keyring")

// Keyring is the minimal OS keyring surface needed to store API keys.
// The account is the provider name.
type Keyring interface {
	Get(provider string) (string, error)
	Set(provider, key string) error
	Delete(provider string) error
}

// osKeyring stores keys in the platform keyring (Keychain, Secret Service,
// Windows Credential Manager).
type osKeyring struct {
	service string
}

// NewOSKeyring returns a Keyring backed by the operating system.
func NewOSKeyring() Keyring {
	return &osKeyring{service: constants.KeyringService}
}

func (k *osKeyring) Get(provider string) (string, error) {
	key, err := keyring.Get(k.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring read failed: %w", err)
	}
	return key, nil
}

func (k *osKeyring) Set(provider, key string) error {
	if err := keyring.Set(k.service, provider, key); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	return nil
}

func (k *osKeyring) Delete(provider string) error {
	err := keyring.Delete(k.service, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

// MemoryKeyring is an in-process Keyring. Used when the OS keyring is
// unavailable and in tests.
type MemoryKeyring struct {
	keys map[string]string
}

// NewMemoryKeyring creates an empty in-process keyring.
func NewMemoryKeyring() *MemoryKeyring {
	return &MemoryKeyring{keys: make(map[string]string)}
}

func (m *MemoryKeyring) Get(provider string) (string, error) {
	key, ok := m.keys[provider]
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

func (m *MemoryKeyring) Set(provider, key string) error {
	m.keys[provider] = key
	return nil
}

func (m *MemoryKeyring) Delete(provider string) error {
	delete(m.keys, provider)
	return nil
}

// StoreKeys writes every session key to the keyring.
func StoreKeys(cfg *Config, kr Keyring) error {
	for _, provider := range KnownProviders {
		key := cfg.APIKey(provider)
		if key == "" {
			if err := kr.Delete(provider); err != nil {
				return err
			}
			continue
		}
		if err := kr.Set(provider, key); err != nil {
			return err
		}
	}
	return nil
}
