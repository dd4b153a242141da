package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the command line client.
type ClientConfig struct {
	APIURL             string
	SessionFile        string
	HTTPTimeoutSeconds int
}

// LoadClient reads the client settings from the environment.
func LoadClient() ClientConfig {
	_ = godotenv.Load()

	sessionFile := os.Getenv("BUS_SESSION_FILE")
	if sessionFile == "" {
		sessionFile = defaultSessionFile()
	}

	return ClientConfig{
		APIURL:             strings.TrimRight(getEnv("BUS_API_URL", "http://localhost:5000"), "/"),
		SessionFile:        sessionFile,
		HTTPTimeoutSeconds: getEnvAsInt("BUS_HTTP_TIMEOUT_SECONDS", 10),
	}
}

// HTTPTimeout returns the per-request timeout.
func (c ClientConfig) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bus-tracking", "session.yaml")
}
