// Package config implements TOML configuration loading, validation, and
// environment overrides for ticketdrop. Resolution follows a three-layer
// override chain: defaults -> config file -> environment variables. CLI
// flags (port, verbosity) are applied by the command layer on top.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Drive   DriveConfig   `toml:"drive"`
	Tracker TrackerConfig `toml:"tracker"`
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig controls the HTTP listener and per-request upload limits.
type ServerConfig struct {
	Port          int    `toml:"port"`
	MaxUploadSize string `toml:"max_upload_size"`
}

// DriveConfig identifies the destination store and how to authenticate
// against it. RootID is the shared drive under which all ticket folders
// live; CredentialsPath points at the service-account key file.
type DriveConfig struct {
	RootID          string `toml:"root_id"`
	CredentialsPath string `toml:"credentials_path"`
	BaseURL         string `toml:"base_url"`
	UploadBaseURL   string `toml:"upload_base_url"`
	ChunkSize       string `toml:"chunk_size"`
	CallTimeout     string `toml:"call_timeout"`
}

// TrackerConfig identifies the Bugzilla instance and its API key.
type TrackerConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	CallTimeout string `toml:"call_timeout"`
}

// HistoryConfig controls the upload audit database. An empty path disables
// history entirely; the service runs fine without it.
type HistoryConfig struct {
	DBPath string `toml:"db_path"`
}

// LoggingConfig controls log verbosity and output format.
// Format "auto" picks text on a terminal and JSON otherwise.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
