package mail

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/config"
)

// Mailer delivers authentication mail over SMTP.
type Mailer struct {
	dialer         *gomail.Dialer
	from           string
	frontendOrigin string
}

// NewMailer constructs a Mailer from SMTP settings. Recovery and deletion
// links point at the configured frontend origin.
func NewMailer(cfg config.MailSettings, frontendOrigin string) *Mailer {
	return &Mailer{
		dialer:         gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:           cfg.From,
		frontendOrigin: frontendOrigin,
	}
}

func (m *Mailer) SendSignupCode(email, code string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to GJU Jobs!</h2>
		<p>Your account has been created. Enter the following code to verify your email address:</p>
		<p><strong>%s</strong></p>
		<p>If you did not sign up, you can ignore this email.</p>
	`, code)

	return m.send(email, "Verify your GJU Jobs account", body)
}

func (m *Mailer) SendLoginCode(email, code string) error {
	body := fmt.Sprintf(`
		<h3>Your login code</h3>
		<p>Enter the following code to sign in:</p>
		<p><strong>%s</strong></p>
		<p>If you did not request this code, you can ignore this email.</p>
	`, code)

	return m.send(email, "Your GJU Jobs login code", body)
}

func (m *Mailer) SendLoginNotification(email string, device domain.DeviceInfo) error {
	os := device.OS
	if os == "" {
		os = "unknown OS"
	}
	browser := device.Browser
	if browser == "" {
		browser = "unknown browser"
	}

	body := fmt.Sprintf(`
		<h3>New sign-in to your account</h3>
		<p>Your account was just signed in from %s using %s.</p>
		<p>If this was you, no action is needed. Otherwise, request account recovery immediately.</p>
	`, os, browser)

	return m.send(email, "New sign-in to your GJU Jobs account", body)
}

func (m *Mailer) SendRecoveryLink(email, token string) error {
	body := fmt.Sprintf(`
		<h3>Account recovery requested</h3>
		<p>Use the link below to recover your account. The link works exactly once.</p>
		<p><a href="%s">Recover my account</a></p>
		<p>If you did not request this, you can ignore this email.</p>
	`, m.link("recovery", token))

	return m.send(email, "Recover your GJU Jobs account", body)
}

func (m *Mailer) SendRecoveryNotice(email string) error {
	body := `
		<h3>Your account was recovered</h3>
		<p>All previously issued sessions have been signed out. You can log in again now.</p>
	`

	return m.send(email, "Your GJU Jobs account was recovered", body)
}

func (m *Mailer) SendDeletionLink(email, token string) error {
	body := fmt.Sprintf(`
		<h3>Account deletion requested</h3>
		<p>Use the link below to permanently delete your account. The link works exactly once.</p>
		<p><a href="%s">Delete my account</a></p>
		<p>If you did not request this, request account recovery immediately.</p>
	`, m.link("deletion", token))

	return m.send(email, "Delete your GJU Jobs account", body)
}

func (m *Mailer) SendDeletionNotice(email string) error {
	body := `
		<h3>Your account was deleted</h3>
		<p>Your account and all associated data have been removed. We are sorry to see you go.</p>
	`

	return m.send(email, "Your GJU Jobs account was deleted", body)
}

func (m *Mailer) link(action, token string) string {
	return fmt.Sprintf("%s/%s?token=%s", m.frontendOrigin, action, url.QueryEscape(token))
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %q mail: %w", subject, err)
	}

	return nil
}

var _ port.Mailer = (*Mailer)(nil)
