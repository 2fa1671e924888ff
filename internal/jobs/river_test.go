package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetryPolicy(t *testing.T) {
	policy := NewRetryPolicy()
	require.NotNil(t, policy)

	assert.Equal(t, AnnouncementNotifyMaxAttempts, policy.Default.MaxAttempts)

	notify, ok := policy.ByKind[JobKindAnnouncementNotify]
	require.True(t, ok)
	assert.Equal(t, AnnouncementNotifyMaxAttempts, notify.MaxAttempts)
	assert.Equal(t, 30*time.Second, notify.BaseDelay)

	reminder, ok := policy.ByKind[JobKindPackageReminder]
	require.True(t, ok)
	assert.Equal(t, PackageReminderMaxAttempts, reminder.MaxAttempts)
	assert.Equal(t, 1*time.Minute, reminder.BaseDelay)
	assert.Equal(t, 10*time.Minute, reminder.MaxDelay)
}

func TestNextRetryBacksOffExponentially(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := &rivertype.JobRow{
		Kind:        JobKindAnnouncementNotify,
		Attempt:     1,
		AttemptedAt: &attemptedAt,
	}
	assert.Equal(t, attemptedAt.Add(30*time.Second), policy.NextRetry(job))

	job.Attempt = 3
	assert.Equal(t, attemptedAt.Add(2*time.Minute), policy.NextRetry(job))
}

func TestNextRetryCapsAtMaxDelay(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := &rivertype.JobRow{
		Kind:        JobKindPackageReminder,
		Attempt:     20,
		AttemptedAt: &attemptedAt,
	}
	assert.Equal(t, attemptedAt.Add(10*time.Minute), policy.NextRetry(job))
}

func TestInsertOptsForKind(t *testing.T) {
	opts := InsertOptsForKind(JobKindPackageReminder)
	assert.Equal(t, PackageReminderMaxAttempts, opts.MaxAttempts)

	opts = InsertOptsForKind("unknown")
	assert.Equal(t, AnnouncementNotifyMaxAttempts, opts.MaxAttempts)
}

func TestJobArgsRouteToEmailQueue(t *testing.T) {
	assert.Equal(t, "email", AnnouncementNotifyArgs{}.InsertOpts().Queue)
	assert.Equal(t, "email", PackageReminderArgs{}.InsertOpts().Queue)
}
