package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

type Kind string

const (
	BlockedListing Kind = "blocked_listing"
	MissingBrand   Kind = "missing_brand"
	Welcome        Kind = "welcome"
	Premium        Kind = "premium"
	ForgotPassword Kind = "forgot_password"
)

var kinds = []Kind{BlockedListing, MissingBrand, Welcome, Premium, ForgotPassword}

// Recipient is one addressee; Name is exposed to templates as .Name.
type Recipient struct {
	Email string
	Name  string
}

type Options struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// Mailer renders the embedded templates and delivers them over SMTP.
// Delivery is best-effort: failures are logged, never returned.
type Mailer struct {
	opts      Options
	dialer    *gomail.Dialer
	templates map[Kind]*template.Template
	log       *zap.Logger
}

// New parses every template. With an empty Host the mailer only logs.
func New(o Options, l *zap.Logger) (*Mailer, error) {
	if l == nil {
		l = zap.NewNop()
	}
	m := &Mailer{opts: o, log: l, templates: make(map[Kind]*template.Template, len(kinds))}
	for _, k := range kinds {
		t, err := template.ParseFS(templateFS, "templates/"+string(k)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse mail template %s: %w", k, err)
		}
		m.templates[k] = t
	}
	if o.Host != "" {
		m.dialer = gomail.NewDialer(o.Host, o.Port, o.Username, o.Password)
	}
	return m, nil
}

// Render produces the subject and HTML body of kind for one recipient.
// data must be a map; Name and FrontendURL are filled in when absent.
func (m *Mailer) Render(kind Kind, to Recipient, data map[string]any) (string, string, error) {
	t, ok := m.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown mail kind %q", kind)
	}
	vars := make(map[string]any, len(data)+2)
	for k, v := range data {
		vars[k] = v
	}
	if _, ok := vars["Name"]; !ok {
		vars["Name"] = to.Name
	}
	if _, ok := vars["FrontendURL"]; !ok {
		vars["FrontendURL"] = m.opts.FrontendURL
	}

	var subj, body bytes.Buffer
	if err := t.ExecuteTemplate(&subj, "subject", vars); err != nil {
		return "", "", err
	}
	if err := t.ExecuteTemplate(&body, "body", vars); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subj.String()), body.String(), nil
}

// Send delivers kind to every recipient separately.
func (m *Mailer) Send(ctx context.Context, kind Kind, to []Recipient, data map[string]any) {
	for _, r := range to {
		if ctx.Err() != nil {
			return
		}
		subject, body, err := m.Render(kind, r, data)
		if err != nil {
			m.log.Error("mail: render", zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		if m.dialer == nil {
			m.log.Info("mail: delivery disabled", zap.String("kind", string(kind)),
				zap.String("to", r.Email), zap.String("subject", subject))
			continue
		}

		msg := gomail.NewMessage()
		msg.SetHeader("From", m.opts.From)
		msg.SetHeader("To", r.Email)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body)
		if err := m.dialer.DialAndSend(msg); err != nil {
			m.log.Warn("mail: send failed", zap.String("kind", string(kind)),
				zap.String("to", r.Email), zap.Error(err))
		}
	}
}
