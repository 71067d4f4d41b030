package unifi

import (
	"fmt"

	"github.com/unifi-tools/threatwatch/pkg/database"
)

// SecretOpener unseals stored credentials (pkg/secrets implements it).
type SecretOpener interface {
	Open(sealed string) (string, error)
}

// NewClientFromStored builds a client from the persisted controller
// configuration, unsealing credentials on the way.
func NewClientFromStored(stored *database.ControllerConfig, opener SecretOpener) (*Client, error) {
	config := Config{
		BaseURL:   stored.ControllerURL,
		Site:      stored.SiteID,
		VerifySSL: stored.VerifySSL,
	}

	if stored.Username != nil {
		config.Username = *stored.Username
	}

	if stored.PasswordSealed != nil {
		password, err := opener.Open(*stored.PasswordSealed)
		if err != nil {
			return nil, fmt.Errorf("unable to unseal controller password: %w", err)
		}

		config.Password = password
	}

	if stored.APIKeySealed != nil {
		apiKey, err := opener.Open(*stored.APIKeySealed)
		if err != nil {
			return nil, fmt.Errorf("unable to unseal controller api key: %w", err)
		}

		config.APIKey = apiKey
	}

	return NewClient(config)
}
