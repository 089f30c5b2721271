package i18n

// Error message translation keys.
const (
	ErrKeyInvalidRequest     = "error.invalid_request"
	ErrKeyInvalidRequestBody = "error.invalid_request_body"
	ErrKeyInvalidID          = "error.invalid_id"
	ErrKeyInternalError      = "error.internal_error"
	ErrKeyUnauthorized       = "error.unauthorized"
	ErrKeyAPIKeyRequired     = "error.api_key_required"
	ErrKeyInvalidAPIKey      = "error.invalid_api_key"
	ErrKeyForbidden          = "error.forbidden"
	ErrKeyNotFound           = "error.not_found"
	ErrKeyRateLimitExceeded  = "error.rate_limit_exceeded"
	ErrKeyConflict           = "error.conflict"
	ErrKeyInvalidToken       = "error.invalid_token"
	ErrKeyTokenRequired      = "error.token_required"
	ErrKeyTimeout            = "error.timeout"
	ErrKeyUnavailable        = "error.service_unavailable"

	// Domain errors.
	ErrKeyInvalidTransition  = "error.invalid_transition"
	ErrKeyRegistrationClosed = "error.registration_closed"
	ErrKeyUnknownCacheRoute  = "error.unknown_cache_route"
	ErrKeyInvalidPattern     = "error.invalid_pattern"
)

// Success message translation keys.
const (
	SuccessKeyCacheCleared = "success.cache_cleared"
)
