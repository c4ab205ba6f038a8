package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/avatarctic/account-lifecycle/internal/core/ports"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	verificationTemplate  = "verification"
	passwordResetTemplate = "password_reset"
)

// Renderer builds messages from the embedded templates. Each template has an
// HTML part and a plain-text alternative.
type Renderer struct {
	appName string
	html    map[string]*htmltemplate.Template
	text    map[string]*texttemplate.Template
}

// NewRenderer parses the templates. appName, when set, is appended to
// subjects.
func NewRenderer(appName string) (*Renderer, error) {
	r := &Renderer{
		appName: appName,
		html:    make(map[string]*htmltemplate.Template),
		text:    make(map[string]*texttemplate.Template),
	}

	for _, name := range []string{verificationTemplate, passwordResetTemplate} {
		h, err := htmltemplate.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s.html: %w", name, err)
		}
		t, err := texttemplate.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s.txt: %w", name, err)
		}
		r.html[name] = h
		r.text[name] = t
	}
	return r, nil
}

func (r *Renderer) Verification(to string, data ports.VerificationEmailData) (*ports.EmailMessage, error) {
	return r.render(to, r.subject("Email Verification"), verificationTemplate, data)
}

func (r *Renderer) PasswordReset(to string, data ports.PasswordResetEmailData) (*ports.EmailMessage, error) {
	return r.render(to, r.subject("Password Reset"), passwordResetTemplate, data)
}

func (r *Renderer) subject(s string) string {
	if r.appName == "" {
		return s
	}
	return fmt.Sprintf("%s - %s", s, r.appName)
}

func (r *Renderer) render(to, subject, name string, data interface{}) (*ports.EmailMessage, error) {
	var html, text bytes.Buffer
	if err := r.html[name].Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	if err := r.text[name].Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return &ports.EmailMessage{
		To:       to,
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}
