package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file and returns the resulting Config.
// Unknown keys are fatal — silently ignoring a typo in a config file leads
// to hard-to-debug behavior. Validation runs in Resolve, after environment
// overrides, so a key supplied only via the environment still passes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("config file %s: unknown keys: %v", path, keys)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults. Most deployments configure everything
// through the environment and never create a config file.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables. The returned Config
// is fully validated; a validation failure here is startup-fatal.
func Resolve(path string, env EnvOverrides) (*Config, error) {
	if env.ConfigPath != "" && path == "" {
		path = env.ConfigPath
	}

	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if env.DriveRootID != "" {
		cfg.Drive.RootID = env.DriveRootID
	}

	if env.BugzillaAPIKey != "" {
		cfg.Tracker.APIKey = env.BugzillaAPIKey
	}

	if env.BugzillaBaseURL != "" {
		cfg.Tracker.BaseURL = env.BugzillaBaseURL
	}

	if env.CredentialsPath != "" {
		cfg.Drive.CredentialsPath = env.CredentialsPath
	}

	if env.Port != "" {
		port, convErr := strconv.Atoi(env.Port)
		if convErr != nil {
			return nil, fmt.Errorf("%s: invalid port %q: %w", EnvPort, env.Port, convErr)
		}

		cfg.Server.Port = port
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
