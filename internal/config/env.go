package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig          = "TICKETDROP_CONFIG"
	EnvDriveRootID     = "TICKETDROP_DRIVE_ROOT_ID"
	EnvBugzillaAPIKey  = "TICKETDROP_BUGZILLA_API_KEY"
	EnvBugzillaBaseURL = "TICKETDROP_BUGZILLA_URL"
	EnvCredentialsPath = "TICKETDROP_CREDENTIALS"
	EnvPort            = "TICKETDROP_PORT"
)

// EnvOverrides holds values derived from environment variables.
// These are applied on top of the config file by Resolve.
type EnvOverrides struct {
	ConfigPath      string // TICKETDROP_CONFIG: override config file path
	DriveRootID     string // TICKETDROP_DRIVE_ROOT_ID: destination shared drive
	BugzillaAPIKey  string // TICKETDROP_BUGZILLA_API_KEY: tracker credential
	BugzillaBaseURL string // TICKETDROP_BUGZILLA_URL: tracker endpoint
	CredentialsPath string // TICKETDROP_CREDENTIALS: service-account key file
	Port            string // TICKETDROP_PORT: HTTP listen port
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:      os.Getenv(EnvConfig),
		DriveRootID:     os.Getenv(EnvDriveRootID),
		BugzillaAPIKey:  os.Getenv(EnvBugzillaAPIKey),
		BugzillaBaseURL: os.Getenv(EnvBugzillaBaseURL),
		CredentialsPath: os.Getenv(EnvCredentialsPath),
		Port:            os.Getenv(EnvPort),
	}
}
