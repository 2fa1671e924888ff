package announcements

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byULID  map[string]*Announcement
	created []CreateParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byULID: make(map[string]*Announcement)}
}

func (f *fakeRepo) List(ctx context.Context, buildingID string, limit int) ([]Announcement, error) {
	var list []Announcement
	for _, item := range f.byULID {
		if item.BuildingID == buildingID {
			list = append(list, *item)
		}
	}
	return list, nil
}

func (f *fakeRepo) GetByULID(ctx context.Context, buildingID, ulid string) (*Announcement, error) {
	item, ok := f.byULID[ulid]
	if !ok || item.BuildingID != buildingID {
		return nil, ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (f *fakeRepo) Create(ctx context.Context, params CreateParams) (*Announcement, error) {
	f.created = append(f.created, params)
	item := &Announcement{
		ID:         "row-" + params.ULID,
		ULID:       params.ULID,
		BuildingID: params.BuildingID,
		AuthorID:   params.AuthorID,
		Title:      params.Title,
		Body:       params.Body,
		Category:   params.Category,
		Pinned:     params.Pinned,
	}
	f.byULID[params.ULID] = item
	clone := *item
	return &clone, nil
}

func (f *fakeRepo) Update(ctx context.Context, params UpdateParams) (*Announcement, error) {
	item, ok := f.byULID[params.ULID]
	if !ok {
		return nil, ErrNotFound
	}
	item.Title = params.Title
	item.Body = params.Body
	item.Category = params.Category
	item.Pinned = params.Pinned
	clone := *item
	return &clone, nil
}

func (f *fakeRepo) Delete(ctx context.Context, buildingID, ulid string) error {
	delete(f.byULID, ulid)
	return nil
}

type fakeNotifier struct {
	enqueued []string
	err      error
}

func (f *fakeNotifier) NotifyAnnouncement(ctx context.Context, announcementID string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, announcementID)
	return nil
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		value   string
		want    Category
		wantErr bool
	}{
		{"general", CategoryGeneral, false},
		{"maintenance", CategoryMaintenance, false},
		{"safety", CategorySafety, false},
		{"social", CategorySocial, false},
		{"", CategoryGeneral, false},
		{"gossip", "", true},
		{"General", "", true}, // keys are exact, no case folding
	}

	for _, tt := range tests {
		t.Run("key "+tt.value, func(t *testing.T) {
			got, err := ParseCategory(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateRequiresManager(t *testing.T) {
	service := NewService(newFakeRepo(), nil, zerolog.Nop())

	_, err := service.Create(context.Background(), "building-7", "user-1", "resident", Input{
		Title: "Elevator maintenance",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateEnqueuesNotification(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	service := NewService(repo, notifier, zerolog.Nop())

	created, err := service.Create(context.Background(), "building-7", "mgr-1", "manager", Input{
		Title:    "Water shutoff Thursday",
		Body:     "<p>9am to noon</p>",
		Category: "maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryMaintenance, created.Category)
	assert.Equal(t, []string{created.ID}, notifier.enqueued)
}

func TestCreateSurvivesNotifierFailure(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{err: errors.New("queue unavailable")}
	service := NewService(repo, notifier, zerolog.Nop())

	created, err := service.Create(context.Background(), "building-7", "mgr-1", "manager", Input{
		Title: "Garage door stuck",
	})
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	service := NewService(newFakeRepo(), nil, zerolog.Nop())

	_, err := service.Create(context.Background(), "building-7", "mgr-1", "manager", Input{
		Title:    "Misc",
		Category: "gossip",
	})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestUpdateAndDeleteRequireManager(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, zerolog.Nop())

	created, err := service.Create(context.Background(), "building-7", "mgr-1", "manager", Input{Title: "Pool hours"})
	require.NoError(t, err)

	_, err = service.Update(context.Background(), "building-7", "resident", created.ULID, Input{Title: "Pool hours changed"})
	assert.ErrorIs(t, err, ErrForbidden)

	err = service.Delete(context.Background(), "building-7", "resident", created.ULID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := service.Update(context.Background(), "building-7", "manager", created.ULID, Input{Title: "Pool hours changed", Pinned: true})
	require.NoError(t, err)
	assert.True(t, updated.Pinned)

	assert.NoError(t, service.Delete(context.Background(), "building-7", "manager", created.ULID))
}
