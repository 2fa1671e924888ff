package messages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	messages []Message
}

func (f *fakeRepo) Create(ctx context.Context, params CreateParams) (*Message, error) {
	message := Message{
		ID:          "row-" + params.ULID,
		ULID:        params.ULID,
		BuildingID:  params.BuildingID,
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		Body:        params.Body,
		CreatedAt:   time.Now(),
	}
	f.messages = append(f.messages, message)
	return &message, nil
}

func (f *fakeRepo) Conversation(ctx context.Context, buildingID, userID, otherID string, limit int) ([]Message, error) {
	var history []Message
	for _, message := range f.messages {
		between := (message.SenderID == userID && message.RecipientID == otherID) ||
			(message.SenderID == otherID && message.RecipientID == userID)
		if message.BuildingID == buildingID && between {
			history = append(history, message)
		}
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, userID, otherID string, at time.Time) error {
	for i := range f.messages {
		message := &f.messages[i]
		if message.RecipientID == userID && message.SenderID == otherID && message.ReadAt == nil {
			stamp := at
			message.ReadAt = &stamp
		}
	}
	return nil
}

func (f *fakeRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, message := range f.messages {
		if message.RecipientID == userID && message.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

type fakeChecker struct {
	members map[string]string // userID -> buildingID
}

func (f *fakeChecker) IsResidentOfBuilding(ctx context.Context, userID, buildingID string) (bool, error) {
	return f.members[userID] == buildingID, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	checker := &fakeChecker{members: map[string]string{
		"ana": "building-7",
		"bo":  "building-7",
		"cy":  "building-9",
	}}
	service := NewService(repo, checker)
	service.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return service, repo
}

func TestSend(t *testing.T) {
	service, _ := newTestService()

	sent, err := service.Send(context.Background(), "building-7", "ana", "bo", "Did a package arrive for 4B?")
	require.NoError(t, err)
	assert.Equal(t, "ana", sent.SenderID)
	assert.Equal(t, "bo", sent.RecipientID)
}

func TestSendSanitizesBody(t *testing.T) {
	service, _ := newTestService()

	sent, err := service.Send(context.Background(), "building-7", "ana", "bo", `hi<script>steal()</script>`)
	require.NoError(t, err)
	assert.Equal(t, "hi", sent.Body)
}

func TestSendRejectsBadRecipients(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Send(context.Background(), "building-7", "ana", "ana", "note to self")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = service.Send(context.Background(), "building-7", "ana", "cy", "hello stranger")
	assert.ErrorIs(t, err, ErrRecipientInvalid)

	_, err = service.Send(context.Background(), "building-7", "ana", "bo", "<script></script>")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestConversationMarksRead(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Send(context.Background(), "building-7", "ana", "bo", "first")
	require.NoError(t, err)
	_, err = service.Send(context.Background(), "building-7", "bo", "ana", "second")
	require.NoError(t, err)

	unread, err := service.UnreadCount(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	history, err := service.Conversation(context.Background(), "building-7", "ana", "bo", 100)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	unread, err = service.UnreadCount(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	// Bo still has Ana's message unread.
	unread, err = service.UnreadCount(context.Background(), "bo")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
