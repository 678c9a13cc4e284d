package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Source     SourceConfig      `yaml:"source"`
	Clips      ClipsConfig       `yaml:"clips"`
	Ledgers    LedgersConfig     `yaml:"ledgers"`
	Classifier ClassifierConfig  `yaml:"classifier"`
	Fetch      FetchConfig       `yaml:"fetch"`
	Intake     IntakeConfig      `yaml:"intake"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Clips.Validate(); err != nil {
		return err
	}
	if err := c.Ledgers.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Intake.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SourceConfig names the vault folder whose notes are scanned for links.
//
// DatePattern is a Go time layout matched against note basenames; notes
// that do not match are ignored. Empty means every note in the folder is
// a source.
type SourceConfig struct {
	Folder      string `yaml:"folder"`
	DatePattern string `yaml:"date_pattern"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Folder, validation.Required),
	)
}

// ClipsConfig holds the clip destination folder and the excerpt budget.
type ClipsConfig struct {
	Folder          string `yaml:"folder"`
	MaxExcerptChars int    `yaml:"max_excerpt_chars"`
}

// Validate validates the clips configuration.
func (c *ClipsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Folder, validation.Required),
		validation.Field(&c.MaxExcerptChars, validation.Min(0)),
	)
}

// LedgersConfig holds the vault-relative paths of the two JSON ledgers.
type LedgersConfig struct {
	Product string `yaml:"product"`
	Article string `yaml:"article"`
}

// Validate validates the ledgers configuration.
func (c *LedgersConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Product, validation.Required),
		validation.Field(&c.Article, validation.Required),
	)
}

// ClassifierConfig holds the remote classifier tier settings. A credential
// may come from the environment, the literal APIKey, or APIKeyFile; with
// none of them the remote tier stays off.
type ClassifierConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	Fallback   string `yaml:"fallback"`
}

// Validate validates the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Fallback, validation.In(
			string(models.CategoryProduct), string(models.CategoryArticle))),
	)
}

// FetchConfig bounds outbound page fetches.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Validate validates the fetch configuration.
func (c *FetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("fetch: timeout must be positive")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("fetch: max_body_bytes must not be negative")
	}
	return nil
}

// IntakeConfig holds scan scheduling and the seen-URL state location.
// StatePath is absolute or relative to the working directory, never
// inside the vault: the watcher must not see the pipeline's own writes.
type IntakeConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	StatePath string        `yaml:"state_path"`
}

// Validate validates the intake configuration.
func (c *IntakeConfig) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("intake: debounce must not be negative")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.StatePath, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Source: SourceConfig{
			Folder:      "Daily",
			DatePattern: "2006-01-02",
		},
		Clips: ClipsConfig{
			Folder:          "Clips",
			MaxExcerptChars: 2000,
		},
		Ledgers: LedgersConfig{
			Product: "Ledgers/products.json",
			Article: "Ledgers/articles.json",
		},
		Classifier: ClassifierConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Fallback: string(models.CategoryArticle),
		},
		Fetch: FetchConfig{
			Timeout:      10 * time.Second,
			MaxBodyBytes: 2 << 20,
		},
		Intake: IntakeConfig{
			Debounce:  5 * time.Second,
			StatePath: "./ansuz-state.json",
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
