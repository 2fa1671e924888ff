// Package email sends resident-facing notification mail through Resend.
// With email disabled (the development default) every send is logged and
// skipped, so callers never need to branch on configuration.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/courtyard-app/server/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	logger       zerolog.Logger
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	service := &Service{
		config: cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		service.resendClient = resend.NewClient(cfg.APIKey)
	}
	return service, nil
}

// AnnouncementData feeds the announcement notification template.
type AnnouncementData struct {
	BuildingName string
	Title        string
	Body         template.HTML // already sanitized upstream
	Category     string
	Year         int
}

var announcementTemplate = template.Must(template.New("announcement").Parse(`<html><body>
<h2>{{.BuildingName}}: {{.Title}}</h2>
<p><em>{{.Category}}</em></p>
<div>{{.Body}}</div>
<p style="color:#888">Sent by Courtyard &copy; {{.Year}}</p>
</body></html>`))

func (s *Service) SendAnnouncement(ctx context.Context, to string, data AnnouncementData) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("title", data.Title).
			Msg("email disabled, skipping announcement mail")
		return nil
	}

	data.Year = time.Now().Year()
	body, err := renderTemplate(announcementTemplate, data)
	if err != nil {
		return fmt.Errorf("render announcement mail: %w", err)
	}

	subject := fmt.Sprintf("[%s] %s", data.BuildingName, data.Title)
	return s.send(ctx, "announcement", to, subject, body)
}

// PackageReminderData feeds the pending-package reminder template.
type PackageReminderData struct {
	ResidentName string
	Carrier      string
	ArrivedAt    time.Time
	Year         int
}

var packageReminderTemplate = template.Must(template.New("package_reminder").Parse(`<html><body>
<p>Hi {{.ResidentName}},</p>
<p>A package{{if .Carrier}} from {{.Carrier}}{{end}} has been waiting in the
package room since {{.ArrivedAt.Format "Monday, Jan 2"}}. Please pick it up
when you get a chance.</p>
<p style="color:#888">Sent by Courtyard &copy; {{.Year}}</p>
</body></html>`))

func (s *Service) SendPackageReminder(ctx context.Context, to string, data PackageReminderData) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Msg("email disabled, skipping package reminder")
		return nil
	}

	data.Year = time.Now().Year()
	body, err := renderTemplate(packageReminderTemplate, data)
	if err != nil {
		return fmt.Errorf("render package reminder: %w", err)
	}
	return s.send(ctx, "package_reminder", to, "A package is waiting for you", body)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// validateAddress checks format and rejects header-injection attempts.
func validateAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
