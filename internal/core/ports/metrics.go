package ports

// AccountEvent names an outcome worth counting.
type AccountEvent string

const (
	EventRegistered      AccountEvent = "registered"
	EventEmailVerified   AccountEvent = "email_verified"
	EventLoginSucceeded  AccountEvent = "login_succeeded"
	EventLoginFailed     AccountEvent = "login_failed"
	EventAccountBlocked  AccountEvent = "account_blocked"
	EventLoggedOut       AccountEvent = "logged_out"
	EventTokenRefreshed  AccountEvent = "token_refreshed"
	EventSessionsRevoked AccountEvent = "sessions_revoked"
	EventPasswordReset   AccountEvent = "password_reset"
	EventDeliveryFailed  AccountEvent = "delivery_failed"
)

// AccountEventRecorder counts account events. Implementations must be safe for
// concurrent use.
type AccountEventRecorder interface {
	Record(event AccountEvent)
}
