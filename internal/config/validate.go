package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minPort        = 1
	maxPort        = 65535
	minChunkBytes  = 4 * kibibyte
	maxChunkBytes  = 64 * mebibyte
	minCallTimeout = 1 * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so the
// operator sees a complete report and can fix all issues in one pass.
// A non-nil result is a startup-fatal configuration error.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDrive(&cfg.Drive)...)
	errs = append(errs, validateTracker(&cfg.Tracker)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateServer(s *ServerConfig) []error {
	var errs []error

	if s.Port < minPort || s.Port > maxPort {
		errs = append(errs, fmt.Errorf("server.port: must be between %d and %d, got %d", minPort, maxPort, s.Port))
	}

	if _, err := ParseSize(s.MaxUploadSize); err != nil {
		errs = append(errs, fmt.Errorf("server.max_upload_size: %w", err))
	}

	return errs
}

func validateDrive(d *DriveConfig) []error {
	var errs []error

	if d.RootID == "" {
		errs = append(errs, fmt.Errorf("drive.root_id: required (set in config file or %s)", EnvDriveRootID))
	}

	if d.CredentialsPath == "" {
		errs = append(errs, fmt.Errorf("drive.credentials_path: required (set in config file or %s)", EnvCredentialsPath))
	}

	if d.BaseURL == "" {
		errs = append(errs, errors.New("drive.base_url: must not be empty"))
	}

	if d.UploadBaseURL == "" {
		errs = append(errs, errors.New("drive.upload_base_url: must not be empty"))
	}

	chunk, err := ParseSize(d.ChunkSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("drive.chunk_size: %w", err))
	} else if chunk < minChunkBytes || chunk > maxChunkBytes {
		errs = append(errs, fmt.Errorf("drive.chunk_size: must be between %d and %d bytes, got %d", minChunkBytes, maxChunkBytes, chunk))
	}

	errs = append(errs, validateTimeout("drive.call_timeout", d.CallTimeout)...)

	return errs
}

func validateTracker(t *TrackerConfig) []error {
	var errs []error

	if t.APIKey == "" {
		errs = append(errs, fmt.Errorf("tracker.api_key: required (set in config file or %s)", EnvBugzillaAPIKey))
	}

	if t.BaseURL == "" {
		errs = append(errs, fmt.Errorf("tracker.base_url: required (set in config file or %s)", EnvBugzillaBaseURL))
	}

	errs = append(errs, validateTimeout("tracker.call_timeout", t.CallTimeout)...)

	return errs
}

func validateTimeout(field, raw string) []error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return []error{fmt.Errorf("%s: %w", field, err)}
	}

	if d < minCallTimeout {
		return []error{fmt.Errorf("%s: must be at least %s, got %s", field, minCallTimeout, d)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: must be one of debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be one of auto, text, json; got %q", l.Format))
	}

	return errs
}

// ChunkSizeBytes returns the validated stream copy buffer size in bytes.
func (d *DriveConfig) ChunkSizeBytes() int64 {
	n, err := ParseSize(d.ChunkSize)
	if err != nil {
		return 0
	}

	return n
}

// CallTimeoutDuration returns the validated per-call timeout.
func (d *DriveConfig) CallTimeoutDuration() time.Duration {
	t, err := time.ParseDuration(d.CallTimeout)
	if err != nil {
		return 0
	}

	return t
}

// CallTimeoutDuration returns the validated per-call timeout.
func (t *TrackerConfig) CallTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(t.CallTimeout)
	if err != nil {
		return 0
	}

	return d
}

// MaxUploadSizeBytes returns the validated request body size cap in bytes.
func (s *ServerConfig) MaxUploadSizeBytes() int64 {
	n, err := ParseSize(s.MaxUploadSize)
	if err != nil {
		return 0
	}

	return n
}
