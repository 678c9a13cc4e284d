package classify

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Env vars consulted for the model credential, in order.
var credentialEnvVars = []string{"ANSUZ_OPENAI_API_KEY", "OPENAI_API_KEY"}

// credentialSource resolves the API key for the remote tier. Resolution runs
// on every classification so a key dropped into place is picked up without a
// restart; the missing-key-file warning fires once per process.
type credentialSource struct {
	keyFile   string // from config, may be ~/… or vault-relative
	literal   string // from config
	vaultRoot string
	logger    *slog.Logger

	warnOnce sync.Once
}

// resolve returns the credential and whether one exists. Order: env vars,
// key file, literal config value.
func (c *credentialSource) resolve() (string, bool) {
	for _, name := range credentialEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true
		}
	}
	if c.keyFile != "" {
		if key := c.readKeyFile(); key != "" {
			return key, true
		}
	}
	if v := strings.TrimSpace(c.literal); v != "" {
		return v, true
	}
	return "", false
}

func (c *credentialSource) readKeyFile() string {
	path := c.keyFile
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.vaultRoot, path)
	}
	data, err := os.ReadFile(path)
	key := strings.TrimSpace(string(data))
	if err != nil || key == "" {
		c.warnOnce.Do(func() {
			c.logger.Warn("classify: api key file unreadable or empty, remote tier stays off",
				"path", c.keyFile)
		})
		return ""
	}
	return key
}
