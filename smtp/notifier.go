// Package smtp implements email change notifications over SMTP.
package smtp

import (
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"github.com/fangeriz/gazette"
)

// maxEmailItems caps how many new publications one message lists.
const maxEmailItems = 50

// Compile-time interface verification.
var _ gazette.Notifier = (*Notifier)(nil)

// Config holds the SMTP connection settings. Username doubles as the
// From address.
type Config struct {
	Server     string
	Port       int
	Username   string
	Password   string
	Recipients []string
}

// Validate returns an error if the config is not usable.
func (c Config) Validate() error {
	if c.Server == "" {
		return gazette.Errorf(gazette.EINVALID, "SMTP server is required")
	}
	if c.Port == 0 {
		return gazette.Errorf(gazette.EINVALID, "SMTP port is required")
	}
	if c.Username == "" {
		return gazette.Errorf(gazette.EINVALID, "SMTP username is required")
	}
	if len(c.Recipients) == 0 {
		return gazette.Errorf(gazette.EINVALID, "at least one recipient is required")
	}
	return nil
}

// Notifier sends one HTML email per run: a novelty digest when the
// change set has entries, a short status message otherwise.
type Notifier struct {
	config Config

	// send delivers a composed message. Overridable in tests.
	send func(e *email.Email) error

	now func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSendFunc replaces the delivery function. Used by tests to capture
// composed messages without a live SMTP server.
func WithSendFunc(send func(e *email.Email) error) Option {
	return func(n *Notifier) { n.send = send }
}

// WithNow replaces the clock used for subjects and body dates.
func WithNow(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier creates a Notifier for the given SMTP settings.
func NewNotifier(config Config, opts ...Option) (*Notifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	n := &Notifier{config: config, now: time.Now}
	addr := fmt.Sprintf("%s:%d", config.Server, config.Port)
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Server)
	n.send = func(e *email.Email) error {
		return e.Send(addr, auth)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify composes and sends the email for one run.
func (n *Notifier) Notify(ctx context.Context, changes *gazette.ChangeSet, sourceName string, runDate time.Time) error {
	if err := ctx.Err(); err != nil {
		return gazette.Errorf(gazette.ETIMEOUT, "notification canceled: %s", err)
	}

	body, err := renderBody(changes, sourceName, n.now())
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.config.Username
	e.To = n.config.Recipients
	e.Subject = subject(changes, sourceName, n.now())
	e.HTML = []byte(body)

	if err := n.send(e); err != nil {
		return gazette.Errorf(gazette.EUNAVAILABLE, "failed to send notification to %s: %s",
			strings.Join(n.config.Recipients, ", "), err)
	}
	return nil
}

func subject(changes *gazette.ChangeSet, sourceName string, now time.Time) string {
	date := now.Format("02/01/2006")
	if changes.HasChanges() {
		return fmt.Sprintf("New publications in %s - %s", sourceName, date)
	}
	return fmt.Sprintf("Status of %s - %s", sourceName, date)
}

var bodyTmpl = template.Must(template.New("notification").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background-color: #003d6a; color: white; padding: 20px; text-align: center; }
.summary { background-color: #f4f4f4; padding: 15px; margin: 20px 0; border-left: 4px solid #003d6a; }
.item { background-color: #fff; border: 1px solid #ddd; padding: 10px; margin: 10px 0; border-radius: 4px; }
.item-title { font-weight: bold; color: #003d6a; }
.item-meta { font-size: 0.9em; color: #666; }
.new { border-left: 4px solid #28a745; }
a { color: #003d6a; text-decoration: none; }
</style>
</head>
<body>
<div class="header"><h1>{{.SourceName}} Monitor</h1><p>{{.Date}}</p></div>
{{if .HasChanges}}
<div class="summary">
<h3>Summary</h3>
<p><strong>{{.NewCount}}</strong> new publications since the last check.{{if .RemovedCount}} {{.RemovedCount}} entries from the previous edition no longer appear.{{end}}{{if .Truncated}} Showing the first {{len .NewItems}}.{{end}}</p>
</div>
<div class="section">
<h2>New publications</h2>
{{range .NewItems}}
<div class="item new">
<div class="item-title">{{.Title}}</div>
<div class="item-meta"><strong>Section:</strong> {{if .Section}}{{.Section}}{{else}}-{{end}} | <strong>Department:</strong> {{if .Department}}{{.Department}}{{else}}-{{end}} | <strong>Rank:</strong> {{if .Rank}}{{.Rank}}{{else}}-{{end}}</div>
{{if .URL}}<a href="{{.URL}}" target="_blank">View document</a>{{end}}
</div>
{{end}}
</div>
{{else}}
<div class="summary" style="border-left: 4px solid #666;">
<h3>No changes</h3>
<p>No new publications were detected in {{.SourceName}} today.</p>
</div>
{{end}}
<div style="text-align: center; margin-top: 30px; padding: 20px; background-color: #f4f4f4;">
<p style="font-size: 0.8em; color: #666;">Automated gazette monitoring</p>
</div>
</body>
</html>
`))

type bodyData struct {
	SourceName   string
	Date         string
	HasChanges   bool
	NewCount     int
	RemovedCount int
	Truncated    bool
	NewItems     []gazette.Item
}

func renderBody(changes *gazette.ChangeSet, sourceName string, now time.Time) (string, error) {
	items := changes.NewItems
	truncated := len(items) > maxEmailItems
	if truncated {
		items = items[:maxEmailItems]
	}

	var sb strings.Builder
	err := bodyTmpl.Execute(&sb, bodyData{
		SourceName:   sourceName,
		Date:         now.Format("2 January 2006"),
		HasChanges:   changes.HasChanges(),
		NewCount:     len(changes.NewItems),
		RemovedCount: len(changes.RemovedItems),
		Truncated:    truncated,
		NewItems:     items,
	})
	if err != nil {
		return "", gazette.Errorf(gazette.EINTERNAL, "failed to render notification: %s", err)
	}
	return sb.String(), nil
}
