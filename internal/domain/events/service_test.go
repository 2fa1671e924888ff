package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	events     map[string]*Event
	rsvps      map[string]bool // eventID|userID -> going
	setRSVPErr error
	created    []CreateParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[string]*Event), rsvps: make(map[string]bool)}
}

func (f *fakeRepo) List(ctx context.Context, buildingID string, pagination Pagination) (ListResult, error) {
	var result ListResult
	for _, event := range f.events {
		if event.BuildingID == buildingID {
			result.Events = append(result.Events, *event)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListForWindow(ctx context.Context, buildingID string, from, to time.Time) ([]Event, error) {
	var list []Event
	for _, event := range f.events {
		if event.BuildingID != buildingID {
			continue
		}
		if event.Recurrence == nil && (event.StartTime.Before(from) || event.StartTime.After(to)) {
			continue
		}
		list = append(list, *event)
	}
	return list, nil
}

func (f *fakeRepo) GetByULID(ctx context.Context, buildingID, ulid string) (*Event, error) {
	event, ok := f.events[ulid]
	if !ok || event.BuildingID != buildingID {
		return nil, ErrNotFound
	}
	clone := *event
	return &clone, nil
}

func (f *fakeRepo) Create(ctx context.Context, params CreateParams) (*Event, error) {
	f.created = append(f.created, params)
	event := &Event{
		ID:            "row-" + params.ULID,
		ULID:          params.ULID,
		BuildingID:    params.BuildingID,
		CreatedBy:     params.CreatedBy,
		Title:         params.Title,
		Description:   params.Description,
		Location:      params.Location,
		StartTime:     params.StartTime,
		EndTime:       params.EndTime,
		Recurrence:    params.Recurrence,
		RecurrenceEnd: params.RecurrenceEnd,
	}
	f.events[params.ULID] = event
	clone := *event
	return &clone, nil
}

func (f *fakeRepo) Update(ctx context.Context, params UpdateParams) (*Event, error) {
	event, ok := f.events[params.ULID]
	if !ok {
		return nil, ErrNotFound
	}
	event.Title = params.Title
	event.Description = params.Description
	event.Location = params.Location
	event.StartTime = params.StartTime
	event.EndTime = params.EndTime
	event.Recurrence = params.Recurrence
	event.RecurrenceEnd = params.RecurrenceEnd
	clone := *event
	return &clone, nil
}

func (f *fakeRepo) Delete(ctx context.Context, buildingID, ulid string) error {
	if _, ok := f.events[ulid]; !ok {
		return ErrNotFound
	}
	delete(f.events, ulid)
	return nil
}

func (f *fakeRepo) GetRSVP(ctx context.Context, eventID, userID string) (bool, bool, error) {
	going, ok := f.rsvps[eventID+"|"+userID]
	return going, ok, nil
}

func (f *fakeRepo) SetRSVP(ctx context.Context, eventID, userID string, going bool) error {
	if f.setRSVPErr != nil {
		return f.setRSVPErr
	}
	f.rsvps[eventID+"|"+userID] = going
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	service := NewService(repo)
	service.now = func() time.Time { return date(2026, time.March, 1) }
	return service
}

func TestServiceCreateBuildsRuleFromRepeatKeyword(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:     "Board game night",
		StartTime: at(2026, time.January, 3, 19, 0), // first Saturday
		Repeat:    "monthly_by_dow",
	})
	require.NoError(t, err)

	require.NotNil(t, created.Recurrence)
	assert.Equal(t, FreqMonthlyByWeekday, created.Recurrence.Freq)
	assert.Equal(t, 1, created.Recurrence.Week)
	assert.Equal(t, time.Saturday, created.Recurrence.Weekday)
	assert.NotEmpty(t, created.ULID)
}

func TestServiceCreateRejectsUnknownRepeat(t *testing.T) {
	service := newTestService(newFakeRepo())

	_, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:     "Stretch class",
		StartTime: at(2026, time.January, 5, 7, 0),
		Repeat:    "hourly",
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceCreateSanitizesInput(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:       `<script>alert("x")</script>Rooftop social`,
		Description: `<p>Snacks</p><script>steal()</script>`,
		StartTime:   at(2026, time.April, 10, 17, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rooftop social", created.Title)
	assert.Equal(t, "<p>Snacks</p>", created.Description)
}

func TestServiceCreateValidatesTimes(t *testing.T) {
	service := newTestService(newFakeRepo())
	end := at(2026, time.April, 10, 16, 0)

	_, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:     "Backwards event",
		StartTime: at(2026, time.April, 10, 17, 0),
		EndTime:   &end,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceCalendarExpandsRecurring(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	_, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:     "Yoga",
		StartTime: at(2026, time.March, 2, 18, 0), // Monday
		Repeat:    "weekly",
	})
	require.NoError(t, err)

	from := date(2026, time.March, 1)
	to := date(2026, time.March, 31)
	occurrences, err := service.Calendar(context.Background(), "building-7", Filters{From: &from, To: &to, Expand: true})
	require.NoError(t, err)

	require.Len(t, occurrences, 5) // Mondays: Mar 2, 9, 16, 23, 30
	for _, occurrence := range occurrences {
		assert.True(t, occurrence.Generated)
	}
}

func TestServiceCalendarWithoutExpandReturnsStored(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	_, err := service.Create(context.Background(), "building-7", "user-1", CreateInput{
		Title:     "Yoga",
		StartTime: at(2026, time.March, 2, 18, 0),
		Repeat:    "weekly",
	})
	require.NoError(t, err)

	occurrences, err := service.Calendar(context.Background(), "building-7", Filters{})
	require.NoError(t, err)

	require.Len(t, occurrences, 1)
	assert.False(t, occurrences[0].Generated)
}

func TestServiceUpdateRequiresOwnershipOrManager(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "owner", CreateInput{
		Title:     "Movie night",
		StartTime: at(2026, time.April, 1, 20, 0),
	})
	require.NoError(t, err)

	input := CreateInput{Title: "Movie night (moved)", StartTime: at(2026, time.April, 2, 20, 0)}

	_, err = service.Update(context.Background(), "building-7", "someone-else", "resident", created.ULID, input)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := service.Update(context.Background(), "building-7", "someone-else", "manager", created.ULID, input)
	require.NoError(t, err)
	assert.Equal(t, "Movie night (moved)", updated.Title)

	_, err = service.Update(context.Background(), "building-7", "owner", "resident", created.ULID, input)
	assert.NoError(t, err)
}

func TestServiceDeleteRequiresOwnershipOrManager(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "owner", CreateInput{
		Title:     "Potluck",
		StartTime: at(2026, time.April, 1, 18, 0),
	})
	require.NoError(t, err)

	err = service.Delete(context.Background(), "building-7", "stranger", "resident", created.ULID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = service.Delete(context.Background(), "building-7", "owner", "resident", created.ULID)
	assert.NoError(t, err)
}

func TestServiceRSVPAdjustsCount(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "owner", CreateInput{
		Title:     "Potluck",
		StartTime: at(2026, time.April, 1, 18, 0),
	})
	require.NoError(t, err)

	event, err := service.RSVP(context.Background(), "building-7", "user-2", created.ULID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, event.GoingCount)

	// Going again is idempotent for the count.
	repo.events[created.ULID].GoingCount = 1
	event, err = service.RSVP(context.Background(), "building-7", "user-2", created.ULID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, event.GoingCount)

	event, err = service.RSVP(context.Background(), "building-7", "user-2", created.ULID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, event.GoingCount)
}

func TestServiceRSVPRevertsOnFailure(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	created, err := service.Create(context.Background(), "building-7", "owner", CreateInput{
		Title:     "Potluck",
		StartTime: at(2026, time.April, 1, 18, 0),
	})
	require.NoError(t, err)

	repo.setRSVPErr = errors.New("connection reset")
	_, err = service.RSVP(context.Background(), "building-7", "user-2", created.ULID, true)
	require.Error(t, err)

	// The stored count was never touched and the failed optimistic bump was
	// rolled back before returning.
	stored, err := service.Get(context.Background(), "building-7", created.ULID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.GoingCount)
}
