package port

import "github.com/GitHubKaan/gju-jobs-api/internal/core/domain"

// Mailer delivers authentication artifacts out-of-band. Callers treat every
// method as fire-and-forget: failures are logged, never surfaced to the
// client of the auth flow.
type Mailer interface {
	SendSignupCode(email, code string) error
	SendLoginCode(email, code string) error
	SendLoginNotification(email string, device domain.DeviceInfo) error
	SendRecoveryLink(email, token string) error
	SendRecoveryNotice(email string) error
	SendDeletionLink(email, token string) error
	SendDeletionNotice(email string) error
}
