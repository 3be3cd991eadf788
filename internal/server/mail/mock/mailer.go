// Package mock provides a Mailer double for tests.
package mock

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
)

// Ensure Mailer implements mail.Mailer.
var _ mail.Mailer = &Mailer{}

// Sent records one delivered message.
type Sent struct {
	To       string
	Username string
	URL      string
	Kind     string // "verification" or "password-reset"
}

// Mailer records every send for later inspection.
type Mailer struct {
	mu   sync.Mutex
	sent []Sent
}

func (m *Mailer) SendVerificationEmail(ctx context.Context, to, username, verificationURL string) {
	m.record(Sent{To: to, Username: username, URL: verificationURL, Kind: "verification"})
}

func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, username, resetURL string) {
	m.record(Sent{To: to, Username: username, URL: resetURL, Kind: "password-reset"})
}

func (m *Mailer) record(s Sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

// Messages returns a copy of everything sent so far.
func (m *Mailer) Messages() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}
