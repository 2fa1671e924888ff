package residents

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byEmail   map[string]*Resident
	byID      map[string]*Resident
	buildings map[string]*Building
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byEmail: make(map[string]*Resident),
		byID:    make(map[string]*Resident),
		buildings: map[string]*Building{
			"OAK-7": {ID: "building-7", Code: "OAK-7", Name: "Oakwood Court"},
		},
	}
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*Resident, error) {
	resident, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *resident
	return &clone, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*Resident, error) {
	resident, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *resident
	return &clone, nil
}

func (f *fakeRepo) Create(ctx context.Context, params CreateParams) (*Resident, error) {
	resident := &Resident{
		ID:           "row-" + params.ULID,
		ULID:         params.ULID,
		BuildingID:   params.BuildingID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		Unit:         params.Unit,
		Role:         params.Role,
		ShareContact: params.ShareContact,
	}
	f.byEmail[params.Email] = resident
	f.byID[resident.ID] = resident
	clone := *resident
	return &clone, nil
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, params ProfileParams) (*Resident, error) {
	resident, ok := f.byID[params.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	resident.Name = params.Name
	resident.Unit = params.Unit
	resident.Phone = params.Phone
	resident.ShareContact = params.ShareContact
	clone := *resident
	return &clone, nil
}

func (f *fakeRepo) Directory(ctx context.Context, buildingID string) ([]Resident, error) {
	var list []Resident
	for _, resident := range f.byID {
		if resident.BuildingID == buildingID && resident.ShareContact {
			list = append(list, *resident)
		}
	}
	return list, nil
}

func (f *fakeRepo) ListEmails(ctx context.Context, buildingID string) ([]string, error) {
	var emails []string
	for _, resident := range f.byID {
		if resident.BuildingID == buildingID {
			emails = append(emails, resident.Email)
		}
	}
	return emails, nil
}

func (f *fakeRepo) GetBuildingByCode(ctx context.Context, code string) (*Building, error) {
	building, ok := f.buildings[code]
	if !ok {
		return nil, ErrBuildingNotFound
	}
	clone := *building
	return &clone, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:        "Ana@Example.com",
		Password:     "sunny-balcony-9",
		Name:         "Ana Souza",
		Unit:         "4B",
		BuildingCode: "OAK-7",
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	service := NewService(newFakeRepo(), zerolog.Nop())

	created, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, "building-7", created.BuildingID)
	assert.Equal(t, "resident", created.Role)
	assert.Empty(t, created.PasswordHash, "hash must not leak on the returned copy")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	service := NewService(newFakeRepo(), zerolog.Nop())

	input := validInput()
	input.Email = "not-an-email"
	_, err := service.Register(context.Background(), input)
	assert.Error(t, err)

	input = validInput()
	input.Password = "short"
	_, err = service.Register(context.Background(), input)
	assert.Error(t, err)

	input = validInput()
	input.BuildingCode = "NOPE-1"
	_, err = service.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrBuildingNotFound)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service := NewService(newFakeRepo(), zerolog.Nop())

	_, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = service.Register(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	service := NewService(newFakeRepo(), zerolog.Nop())

	_, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	resident, err := service.Authenticate(context.Background(), " ANA@example.com ", "sunny-balcony-9")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", resident.Email)

	_, err = service.Authenticate(context.Background(), "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Authenticate(context.Background(), "nobody@example.com", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectoryOnlyListsOptedIn(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, zerolog.Nop())

	shared := validInput()
	shared.ShareContact = true
	_, err := service.Register(context.Background(), shared)
	require.NoError(t, err)

	private := validInput()
	private.Email = "bo@example.com"
	private.Name = "Bo Lindqvist"
	_, err = service.Register(context.Background(), private)
	require.NoError(t, err)

	directory, err := service.Directory(context.Background(), "building-7")
	require.NoError(t, err)
	require.Len(t, directory, 1)
	assert.Equal(t, "Ana Souza", directory[0].Name)
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, zerolog.Nop())

	created, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := service.UpdateProfile(context.Background(), created.ID, ProfileInput{
		Name:         "Ana S.",
		Unit:         "4B",
		Phone:        "555-0134",
		ShareContact: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana S.", updated.Name)
	assert.True(t, updated.ShareContact)
}
