package config

// Default values for configuration options. These are "layer 0" of the
// override chain and work out of the box against the public Google Drive
// and Bugzilla endpoints; only credentials and ids must be supplied.
const (
	DefaultPort          = 3000
	defaultMaxUploadSize = "1GiB"
	defaultChunkSize     = "256KiB"
	defaultCallTimeout   = "60s"
	defaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"
	defaultUploadBaseURL = "https://www.googleapis.com/upload/drive/v3"
	defaultLogLevel      = "info"
	defaultLogFormat     = "auto"
)

// DefaultConfig returns a Config populated with all default values.
// Used as the starting point for TOML decoding (unset fields keep their
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          DefaultPort,
			MaxUploadSize: defaultMaxUploadSize,
		},
		Drive: DriveConfig{
			BaseURL:       defaultDriveBaseURL,
			UploadBaseURL: defaultUploadBaseURL,
			ChunkSize:     defaultChunkSize,
			CallTimeout:   defaultCallTimeout,
		},
		Tracker: TrackerConfig{
			CallTimeout: defaultCallTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
