package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app’s secrets in the OS keychain.
	KeyringService = "jobsift"

	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Lookup resolves a secret: environment variable first, OS keychain second.
// Env wins so CI and one-off overrides stay simple.
func Lookup(envVar, keyringAccount string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		v, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("secret not found: set %s or store it in the keychain", envVar)
}

func Store(keyringAccount, value string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, value)
}

func Delete(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// GoogleAPIKey returns the Custom Search API key.
func GoogleAPIKey() (string, error) {
	return Lookup(EnvGoogleAPIKey, "jobsift:google")
}

// OpenAIAPIKey returns the LLM provider key.
func OpenAIAPIKey() (string, error) {
	return Lookup(EnvOpenAIAPIKey, "jobsift:openai")
}

// IMAPPassword returns the mailbox password for the alerts source.
func IMAPPassword(username, host string) (string, error) {
	account := fmt.Sprintf("jobsift:imap:%s@%s", username, host)
	return Lookup("JOBSIFT_IMAP_PASSWORD", account)
}

// IMAPKeyringAccount names the keychain entry for a mailbox, for the CLI's
// secret set/delete commands.
func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("jobsift:imap:%s@%s", username, host)
}
