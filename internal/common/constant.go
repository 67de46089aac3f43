package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed back on every response and used as the
// request id when supplied by the client.
const RequestIDHeaderName = "X-Request-ID"

// Roles understood by the authorization layer.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
