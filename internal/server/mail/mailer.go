// Package mail delivers transactional email over SMTP. Delivery is
// best-effort: the owning request has already persisted its token, so send
// failures are logged here and never surface to the caller (the resend
// endpoints cover the gap).
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	netmail "net/mail"
	"net/url"
	"text/template"

	"github.com/dajohi/goemail"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Mailer renders and sends transactional email. Implementations swallow
// delivery errors.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, verificationURL string)
	SendPasswordResetEmail(ctx context.Context, to, username, resetURL string)
}

// Client is the SMTP-backed Mailer. With no SMTP host configured the client
// is disabled and sends become no-ops, which keeps development setups mailless.
type Client struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
	logger      logging.Logger
}

// NewClient dials nothing; it only parses configuration. Empty host, user or
// password disables sending entirely.
func NewClient(host, user, password, fromAddress string, skipVerify bool, logger logging.Logger) (*Client, error) {
	l := logger.With("module", "mail")

	if host == "" || user == "" || password == "" {
		return &Client{disabled: true, logger: l}, nil
	}

	u, err := url.Parse(fmt.Sprintf("smtps://%v:%v@%v", user, password, host))
	if err != nil {
		return nil, fmt.Errorf("error parsing smtp host: %w", err)
	}

	addr, err := netmail.ParseAddress(fromAddress)
	if err != nil {
		return nil, fmt.Errorf("error parsing from address: %w", err)
	}

	smtp, err := goemail.NewSMTP(u.String(), &tls.Config{InsecureSkipVerify: skipVerify})
	if err != nil {
		return nil, fmt.Errorf("error initializing smtp client: %w", err)
	}

	return &Client{
		smtp:        smtp,
		mailName:    addr.Name,
		mailAddress: addr.Address,
		logger:      l,
	}, nil
}

// SendVerificationEmail mails the verify-your-email link.
func (c *Client) SendVerificationEmail(ctx context.Context, to, username, verificationURL string) {
	c.send(ctx, to, verificationSubject, verificationTmpl, templateParams{Username: username, URL: verificationURL})
}

// SendPasswordResetEmail mails the password reset link.
func (c *Client) SendPasswordResetEmail(ctx context.Context, to, username, resetURL string) {
	c.send(ctx, to, passwordResetSubject, passwordResetTmpl, templateParams{Username: username, URL: resetURL})
}

func (c *Client) send(ctx context.Context, to, subject string, tmpl *template.Template, params templateParams) {
	if c.disabled {
		c.logger.Debug(ctx, "mail disabled, skipping send", "to", to, "subject", subject)
		return
	}

	body, err := renderTemplate(tmpl, params)
	if err != nil {
		c.logger.Error(ctx, "error rendering mail template", "subject", subject, "error", err)
		return
	}

	msg := goemail.NewMessage(c.mailAddress, subject, body)
	msg.SetName(c.mailName)
	msg.AddTo(to)

	if err := c.smtp.Send(msg); err != nil {
		c.logger.Error(ctx, "error sending mail", "to", to, "subject", subject, "error", err)
		return
	}
	c.logger.Info(ctx, "mail sent", "to", to, "subject", subject)
}
