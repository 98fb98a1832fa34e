package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"workshift-engine/internal/config"
)

const (
	// “Service” groups the engine's secrets in the OS keychain.
	KeyringService = "workshift"
)

func get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, account)
	if err != nil || strings.TrimSpace(pw) == "" {
		return "", fmt.Errorf("secret %q not found in keychain", account)
	}
	return pw, nil
}

func set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func del(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// Adzuna app key, stored per app_id so switching accounts works.

func AdzunaKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf("workshift:adzuna:%s", cfg.Sources.Adzuna.AppID)
}

func GetAdzunaAppKey(account string) (string, error) { return get(account) }
func SetAdzunaAppKey(account, key string) error      { return set(account, key) }
func DeleteAdzunaAppKey(account string) error        { return del(account) }

// IMAP password for the email census mailbox.

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"workshift:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}

func GetIMAPPassword(account string) (string, error) { return get(account) }
func SetIMAPPassword(account, password string) error { return set(account, password) }
func DeleteIMAPPassword(account string) error        { return del(account) }
