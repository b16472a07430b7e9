package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	QueuePath  string `yaml:"queue_path"`

	// FirestoreProject selects the hosted backend. Empty means the
	// self-hosted bolt backend at DBPath.
	FirestoreProject string `yaml:"firestore_project"`

	AuthEnabled  bool   `yaml:"auth_enabled"`
	OIDCIssuer   string `yaml:"oidc_issuer"`
	OIDCClientID string `yaml:"oidc_client_id"`

	// APIBaseURL is used by CLI commands talking to a running server.
	APIBaseURL string `yaml:"api_base_url"`

	CORSOrigins []string `yaml:"cors_origins"`
}

// Load reads the YAML config named by the FIFTY_CONFIG environment variable,
// falling back to config.yaml in the working directory. A missing file is not
// an error when the default path is used; defaults apply.
func Load() (*Config, error) {
	path := os.Getenv("FIFTY_CONFIG")
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}

	cfg := &Config{
		ListenAddr: ":8080",
		DBPath:     "fifty.db",
		QueuePath:  "fifty-queue.db",
		APIBaseURL: "http://localhost:8080",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.AuthEnabled && (cfg.OIDCIssuer == "" || cfg.OIDCClientID == "") {
		return nil, fmt.Errorf("auth_enabled requires oidc_issuer and oidc_client_id")
	}
	return cfg, nil
}
