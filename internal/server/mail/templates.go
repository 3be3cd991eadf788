package mail

import (
	"bytes"
	"text/template"
)

const (
	verificationSubject  = "Please verify your email"
	passwordResetSubject = "Password reset request"
)

// Plain-text transactional bodies. The link carries the raw one-time token;
// the server only ever stores its digest.
var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`Hi {{.Username}},

Welcome to our platform! We're excited to have you on board.

To get started, please verify your email address by opening the link below:

{{.URL}}

If you did not create an account, no further action is required.
`))

	passwordResetTmpl = template.Must(template.New("passwordReset").Parse(
		`Hi {{.Username}},

We received a request to reset your password.

To reset your password, please open the link below:

{{.URL}}

If you did not request a password reset, no further action is required.
`))
)

type templateParams struct {
	Username string
	URL      string
}

func renderTemplate(t *template.Template, params templateParams) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}
