// Package notify holds the narrow interfaces for the two external
// collaborators of order fulfillment: document rendering and mail delivery.
// Real transports (SMTP relays, PDF services) live behind these interfaces;
// the implementations here are the development stand-ins.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTemplates parses the document templates shipped with the binary.
func DefaultTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Attachment is a rendered document handed to the delivery collaborator.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	Recipients  []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Renderer turns a template id plus a key-value context into document bytes.
type Renderer interface {
	Render(ctx context.Context, templateID string, data map[string]any) ([]byte, error)
}

// Sender delivers a message. Implementations decide transport and retries.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TemplateRenderer renders documents from a set of pre-parsed HTML
// templates, keyed by template id.
type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer(templates *template.Template) *TemplateRenderer {
	return &TemplateRenderer{templates: templates}
}

func (r *TemplateRenderer) Render(ctx context.Context, templateID string, data map[string]any) ([]byte, error) {
	tmpl := r.templates.Lookup(templateID + ".html")
	if tmpl == nil {
		return nil, fmt.Errorf("notify: unknown template %q", templateID)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("notify: failed to render template %q: %w", templateID, err)
	}
	return buf.Bytes(), nil
}

// LogSender writes outbound messages to the log instead of a mail relay.
// Used in development and as the default when no SMTP relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Info().
		Strs("recipients", msg.Recipients).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("notify: message delivered to log sender")
	return nil
}
