package handler

const (
	msgUnsupportedContentType = "content type must be application/json or a form post"
	msgInvalidRequestBody     = "invalid request body"
	msgCredentialsRequired    = "username and password are required"
	msgInvalidCredentials     = "invalid credentials"
	msgLoginUnavailable       = "login is temporarily unavailable"
	msgAuthenticationRequired = "authentication required"
	msgAccessDenied           = "access denied"
	msgNotFound               = "resource not found"
	msgInvalidInput           = "invalid input"
	msgRateLimited            = "rate limit exceeded"
	msgCSRFTokenFail          = "failed to issue CSRF token"
)
