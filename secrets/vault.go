package secrets

import (
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// VaultSource реализация Source поверх HashiCorp Vault (KV v2)
type VaultSource struct {
	client *vault.Client
	path   string
}

// NewVaultSource создает новый экземпляр VaultSource.
// Адрес и токен берутся из стандартных переменных окружения
// VAULT_ADDR и VAULT_TOKEN
func NewVaultSource(path string) (*VaultSource, error) {
	client, err := vault.NewClient(vault.DefaultConfig())
	if err != nil {
		return nil, &models.ConnectionError{Target: "vault", Err: err}
	}

	return &VaultSource{
		client: client,
		path:   path,
	}, nil
}

// Get возвращает значение секрета из KV-хранилища vault
func (s *VaultSource) Get(key string) (string, error) {
	secret, err := s.client.Logical().Read(s.path)
	if err != nil {
		return "", &models.ConnectionError{Target: "vault", Err: err}
	}

	if secret == nil || secret.Data == nil {
		return "", &models.ConfigError{Key: s.path}
	}

	// Для KV v2 значения вложены в поле "data"
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	raw, ok := data[key]
	if !ok {
		return "", &models.ConfigError{Key: fmt.Sprintf("%s#%s", s.path, key)}
	}

	value, ok := raw.(string)
	if !ok || value == "" {
		return "", &models.ConfigError{Key: fmt.Sprintf("%s#%s", s.path, key)}
	}

	return value, nil
}
