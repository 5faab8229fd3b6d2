package config

// Validation failures, reported through Validate.
const (
	errPortRequiredFmt         = "PORT must be set"
	errJWTSecretRequiredFmt    = "JWT_SECRET must be set"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errBackendURLInvalidFmt    = "BACKEND_URL must be an absolute http(s) URL: %q"
	errPathNotAbsoluteFmt      = "%s must be an absolute path: %q"
	errPathsCollideFmt         = "LOGIN_PATH and FORBIDDEN_PATH must differ"
	errNonPositiveDurationFmt  = "%s must be positive"
	errNegativeRetryCountFmt   = "BACKEND_RETRY_COUNT must not be negative"
	errLogFormatInvalidFmt     = "LOG_FORMAT must be json or console: %q"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)
