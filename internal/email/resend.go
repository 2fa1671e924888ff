package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/courtyard-app/server/internal/metrics"
)

// send delivers one email through the Resend API. Rate limit responses are
// surfaced with their reset window so the job layer can back off.
func (s *Service) send(ctx context.Context, kind, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w",
				rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent")
	return nil
}
