package identity

import "github.com/go-playground/validator/v10"

// Config is the service-level configuration, unmarshalled from the JSON
// config file at boot.
type Config struct {
	Port         string `json:"port"`
	IsDebug      bool   `json:"is_debug"`
	DatabasePath string `json:"database_path"`
	RedisAddress string `json:"redis_address"`
	JWTKey       string `json:"jwt_key"`

	SSOProvider         string `json:"sso_provider" validate:"required"`
	SSOIssuer           string `json:"sso_issuer" validate:"required,url"`
	UserInfoURL         string `json:"userinfo_url" validate:"omitempty,url"`
	UserInfoTokenMethod string `json:"userinfo_token_method" validate:"omitempty,oneof=HEADER FORM QUERY header form query"`
	FetchTimeoutMs      int    `json:"fetch_timeout_ms"`

	DefaultLangKey     string `json:"default_lang_key"`
	SessionHours       int    `json:"session_hours"`
	PurgeEveryHours    int    `json:"purge_every_hours"`
	PurgeOlderThanDays int    `json:"purge_older_than_days"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "sso.db"
	}
	if c.SSOProvider == "" {
		c.SSOProvider = ProviderDummySSO.String()
	}
	if c.DefaultLangKey == "" {
		c.DefaultLangKey = "en"
	}
	if c.SessionHours <= 0 {
		c.SessionHours = 3
	}
	if c.PurgeEveryHours <= 0 {
		c.PurgeEveryHours = 24
	}
	if c.PurgeOlderThanDays <= 0 {
		c.PurgeOlderThanDays = 3
	}
}

// Validate checks the provider fields after Defaults has run.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
