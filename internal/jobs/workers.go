package jobs

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/courtyard-app/server/internal/domain/announcements"
	"github.com/courtyard-app/server/internal/domain/packages"
	"github.com/courtyard-app/server/internal/domain/residents"
	"github.com/courtyard-app/server/internal/email"
)

// Mailer is the slice of the email service the workers need.
type Mailer interface {
	SendAnnouncement(ctx context.Context, to string, data email.AnnouncementData) error
	SendPackageReminder(ctx context.Context, to string, data email.PackageReminderData) error
}

// AnnouncementSource loads an announcement by its row ID for the fan-out.
type AnnouncementSource interface {
	GetForNotify(ctx context.Context, announcementID string) (*announcements.Announcement, error)
}

// BuildingDirectory resolves building names and resident mailing lists.
type BuildingDirectory interface {
	BuildingName(ctx context.Context, buildingID string) (string, error)
	ListEmails(ctx context.Context, buildingID string) ([]string, error)
}

// PackageSource lists packages still waiting in the package room.
type PackageSource interface {
	ListPendingSince(ctx context.Context, cutoff time.Time) ([]packages.Package, error)
}

// RecipientSource resolves a package recipient to a mailable resident.
type RecipientSource interface {
	GetByID(ctx context.Context, id string) (*residents.Resident, error)
}

type AnnouncementNotifyArgs struct {
	AnnouncementID string `json:"announcement_id"`
}

func (AnnouncementNotifyArgs) Kind() string { return JobKindAnnouncementNotify }

func (AnnouncementNotifyArgs) InsertOpts() river.InsertOpts {
	opts := InsertOptsForKind(JobKindAnnouncementNotify)
	opts.Queue = "email"
	return opts
}

// AnnouncementNotifyWorker emails every resident of the building about a
// new announcement.
type AnnouncementNotifyWorker struct {
	river.WorkerDefaults[AnnouncementNotifyArgs]
	Announcements AnnouncementSource
	Buildings     BuildingDirectory
	Mailer        Mailer
	Logger        zerolog.Logger
}

func (AnnouncementNotifyWorker) Kind() string { return JobKindAnnouncementNotify }

func (w AnnouncementNotifyWorker) Work(ctx context.Context, job *river.Job[AnnouncementNotifyArgs]) error {
	if w.Announcements == nil || w.Buildings == nil || w.Mailer == nil {
		return fmt.Errorf("announcement notify worker not configured")
	}
	if job.Args.AnnouncementID == "" {
		return fmt.Errorf("announcement ID is required")
	}

	announcement, err := w.Announcements.GetForNotify(ctx, job.Args.AnnouncementID)
	if err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			// Deleted before the job ran; nothing to send.
			w.Logger.Info().
				Str("announcement_id", job.Args.AnnouncementID).
				Msg("announcement gone, skipping notify")
			return nil
		}
		return fmt.Errorf("load announcement: %w", err)
	}

	buildingName, err := w.Buildings.BuildingName(ctx, announcement.BuildingID)
	if err != nil {
		return fmt.Errorf("resolve building: %w", err)
	}

	recipients, err := w.Buildings.ListEmails(ctx, announcement.BuildingID)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	data := email.AnnouncementData{
		BuildingName: buildingName,
		Title:        announcement.Title,
		Body:         template.HTML(announcement.Body),
		Category:     string(announcement.Category),
	}

	var failed []error
	for _, to := range recipients {
		if err := w.Mailer.SendAnnouncement(ctx, to, data); err != nil {
			w.Logger.Warn().Err(err).Str("to", to).Msg("announcement mail failed")
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("announcement fan-out: %d of %d sends failed: %w",
			len(failed), len(recipients), errors.Join(failed...))
	}
	return nil
}

type PackageReminderArgs struct{}

func (PackageReminderArgs) Kind() string { return JobKindPackageReminder }

func (PackageReminderArgs) InsertOpts() river.InsertOpts {
	opts := InsertOptsForKind(JobKindPackageReminder)
	opts.Queue = "email"
	return opts
}

// PackageReminderWorker nudges residents whose packages have been sitting
// in the package room past the configured age.
type PackageReminderWorker struct {
	river.WorkerDefaults[PackageReminderArgs]
	Packages    PackageSource
	Recipients  RecipientSource
	Mailer      Mailer
	RemindAfter time.Duration
	Logger      zerolog.Logger
}

func (PackageReminderWorker) Kind() string { return JobKindPackageReminder }

func (w PackageReminderWorker) Work(ctx context.Context, job *river.Job[PackageReminderArgs]) error {
	if w.Packages == nil || w.Recipients == nil || w.Mailer == nil {
		return fmt.Errorf("package reminder worker not configured")
	}

	after := w.RemindAfter
	if after <= 0 {
		after = 48 * time.Hour
	}
	cutoff := time.Now().Add(-after)

	pending, err := w.Packages.ListPendingSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list pending packages: %w", err)
	}

	var failed []error
	for _, pkg := range pending {
		recipient, err := w.Recipients.GetByID(ctx, pkg.RecipientID)
		if err != nil {
			if errors.Is(err, residents.ErrNotFound) {
				continue
			}
			failed = append(failed, fmt.Errorf("resolve recipient for package %s: %w", pkg.ULID, err))
			continue
		}

		data := email.PackageReminderData{
			ResidentName: recipient.Name,
			Carrier:      pkg.Carrier,
			ArrivedAt:    pkg.ArrivedAt,
		}
		if err := w.Mailer.SendPackageReminder(ctx, recipient.Email, data); err != nil {
			w.Logger.Warn().Err(err).
				Str("package_id", pkg.ULID).
				Msg("package reminder mail failed")
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("package reminders: %d failures: %w", len(failed), errors.Join(failed...))
	}

	w.Logger.Info().Int("pending", len(pending)).Msg("package reminder sweep finished")
	return nil
}
