// Package credential looks up passwords that were not given on the command
// line or in the configuration file.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

// Key names one secret in every source.
type Key struct {
	// Env is the environment variable holding the secret.
	Env string
	// Keyring is the item key in the OS keyring.
	Keyring string
}

// Passwords of the two probe accounts.
var (
	SMTPPassword = Key{Env: "SMTP_PASS", Keyring: "smtp-pass"}
	IMAPPassword = Key{Env: "IMAP_PASS", Keyring: "imap-pass"}
)

// Source provides secrets. Lookup returns "" with a nil error when the
// source does not hold k.
type Source interface {
	Lookup(k Key) (string, error)
}

// Resolve asks each source in turn and returns the first non-empty value.
// An empty string with a nil error means no source knew k.
func Resolve(k Key, sources ...Source) (string, error) {
	for _, s := range sources {
		if s == nil {
			continue
		}
		v, err := s.Lookup(k)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

// EnvSource reads secrets from environment variables.
type EnvSource struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Lookup implements Source.
func (s EnvSource) Lookup(k Key) (string, error) {
	if k.Env == "" {
		return "", nil
	}
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(k.Env)
	return v, nil
}

// KeyringSource reads secrets from the OS keyring. The keyring is opened on
// first use so runs that never need it do not touch it.
type KeyringSource struct {
	service string
	ring    keyring.Keyring
}

// NewKeyringSource returns a Source for the keyring service name.
func NewKeyringSource(service string) *KeyringSource {
	return &KeyringSource{service: service}
}

// Service returns the keyring service name.
func (s *KeyringSource) Service() string { return s.service }

func (s *KeyringSource) open() (keyring.Keyring, error) {
	if s.ring != nil {
		return s.ring, nil
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: s.service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring %q: %w", s.service, err)
	}
	s.ring = ring
	return ring, nil
}

// Lookup implements Source.
func (s *KeyringSource) Lookup(k Key) (string, error) {
	if k.Keyring == "" {
		return "", nil
	}
	ring, err := s.open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(k.Keyring)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting credential %q: %w", k.Keyring, err)
	}
	return string(item.Data), nil
}

// Set stores value under k in the keyring.
func (s *KeyringSource) Set(k Key, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}
	err = ring.Set(keyring.Item{
		Key:   k.Keyring,
		Data:  []byte(value),
		Label: s.service + " " + k.Keyring,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", k.Keyring, err)
	}
	return nil
}
