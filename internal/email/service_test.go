package email

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtyard-app/server/internal/config"
)

func disabledService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)
	return service
}

func TestNewServiceRejectsBadSender(t *testing.T) {
	_, err := NewService(config.EmailConfig{Enabled: true, From: "not-an-address"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewService(config.EmailConfig{Enabled: true, From: "Courtyard <no-reply@courtyard.example>", APIKey: "re_test"}, zerolog.Nop())
	assert.NoError(t, err)
}

func TestSendAnnouncementDisabledIsNoop(t *testing.T) {
	service := disabledService(t)

	err := service.SendAnnouncement(context.Background(), "ana@example.com", AnnouncementData{
		BuildingName: "The Larches",
		Title:        "Elevator maintenance",
	})
	assert.NoError(t, err)
}

func TestSendAnnouncementRejectsBadRecipient(t *testing.T) {
	service := disabledService(t)

	err := service.SendAnnouncement(context.Background(), "nope", AnnouncementData{Title: "x"})
	assert.Error(t, err)
}

func TestSendPackageReminderDisabledIsNoop(t *testing.T) {
	service := disabledService(t)

	err := service.SendPackageReminder(context.Background(), "bo@example.com", PackageReminderData{
		ResidentName: "Bo",
		Carrier:      "FedEx",
		ArrivedAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestRenderTemplates(t *testing.T) {
	body, err := renderTemplate(announcementTemplate, AnnouncementData{
		BuildingName: "The Larches",
		Title:        "Pool hours",
		Body:         "<p>Open late Fridays</p>",
		Category:     "general",
		Year:         2026,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "The Larches: Pool hours")
	assert.Contains(t, body, "<p>Open late Fridays</p>")

	body, err = renderTemplate(packageReminderTemplate, PackageReminderData{
		ResidentName: "Ana",
		Carrier:      "UPS",
		ArrivedAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Year:         2026,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Hi Ana")
	assert.Contains(t, body, "from UPS")
	assert.Contains(t, body, "Monday, Mar 2")
}
