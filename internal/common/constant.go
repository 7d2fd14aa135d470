package common

// AuthorizationHeader carries the session token on authenticated requests.
const AuthorizationHeader = "Authorization"

// SessionScheme prefixes the session token in AuthorizationHeader.
const SessionScheme = "LoginSession"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"
