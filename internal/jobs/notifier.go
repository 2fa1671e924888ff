package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Notifier enqueues announcement fan-out jobs. It satisfies the
// announcements service's Notifier interface.
type Notifier struct {
	client *river.Client[pgx.Tx]
}

func NewNotifier(client *river.Client[pgx.Tx]) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) NotifyAnnouncement(ctx context.Context, announcementID string) error {
	if n.client == nil {
		return fmt.Errorf("job client not configured")
	}
	_, err := n.client.Insert(ctx, AnnouncementNotifyArgs{AnnouncementID: announcementID}, nil)
	if err != nil {
		return fmt.Errorf("enqueue announcement notify: %w", err)
	}
	return nil
}
