package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/emx-mail/checkmail/pkgs/config"
	"github.com/emx-mail/checkmail/pkgs/credential"
)

// credentialStore is the writable side of a keyring.
type credentialStore interface {
	Set(k credential.Key, value string) error
	Service() string
}

var newCredentialStore = func(service string) credentialStore {
	return credential.NewKeyringSource(service)
}

// storeCredentials saves the passwords of cfg in store. Passwords not given
// on the command line or in the file are taken from the environment.
func storeCredentials(w io.Writer, cfg config.Config, store credentialStore) error {
	if cfg.KeyringService == "" {
		return errors.New("--store-credentials needs --keyring-service")
	}
	if err := cfg.ResolveCredentials(credential.EnvSource{}); err != nil {
		return err
	}

	secrets := []struct {
		key   credential.Key
		value string
	}{
		{credential.SMTPPassword, cfg.SMTP.Password},
		{credential.IMAPPassword, cfg.IMAP.Password},
	}
	stored := 0
	for _, s := range secrets {
		if s.value == "" {
			continue
		}
		if err := store.Set(s.key, s.value); err != nil {
			return err
		}
		fmt.Fprintf(w, "stored %s in keyring service %s\n", s.key.Keyring, store.Service())
		stored++
	}
	if stored == 0 {
		return errors.New("no password to store: pass --smtp-pass and/or --imap-pass")
	}
	return nil
}
