package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/clients/registration_client"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryKey struct {
	regattaID  uuid.UUID
	sailNumber string
}

type fakeRosterRepo struct {
	entries map[entryKey]models.Entry
}

func newFakeRosterRepo() *fakeRosterRepo {
	return &fakeRosterRepo{entries: make(map[entryKey]models.Entry)}
}

func (f *fakeRosterRepo) UpsertEntry(ctx context.Context, entry models.Entry) (*models.Entry, error) {
	key := entryKey{regattaID: entry.RegattaID, sailNumber: entry.SailNumber}
	if existing, ok := f.entries[key]; ok {
		entry.ID = existing.ID // sail number is the stable key
	}
	f.entries[key] = entry
	cp := entry
	return &cp, nil
}

func (f *fakeRosterRepo) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	for _, entry := range f.entries {
		if entry.ID == id {
			cp := entry
			return &cp, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (f *fakeRosterRepo) GetEntryBySailNumber(ctx context.Context, regattaID uuid.UUID, sailNumber string) (*models.Entry, error) {
	entry, ok := f.entries[entryKey{regattaID: regattaID, sailNumber: sailNumber}]
	if !ok {
		return nil, ErrEntryNotFound
	}
	cp := entry
	return &cp, nil
}

func (f *fakeRosterRepo) ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error) {
	var out []models.Entry
	for key, entry := range f.entries {
		if key.regattaID == regattaID && entry.Eligible {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakePortal struct {
	entries []registration_client.Entry
	err     error
}

func (f *fakePortal) GetEntries(ctx context.Context, regattaID string) ([]registration_client.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func TestSyncFromPortalUpsertsEligibility(t *testing.T) {
	repo := newFakeRosterRepo()
	app := NewApp(repo)
	regattaID := uuid.New()

	portal := &fakePortal{entries: []registration_client.Entry{
		{ID: uuid.New().String(), SailNumber: "GBR 4201", BoatName: "Windshift", ClassName: "Laser", PaidUp: true},
		{ID: uuid.New().String(), SailNumber: "IRL 777", BoatName: "Puffin", ClassName: "Laser", PaidUp: true, Withdrawn: true},
		{ID: "not-a-uuid", SailNumber: "GBR 1899", BoatName: "Second Wind", ClassName: "Laser", PaidUp: true},
	}}

	synced, err := SyncFromPortal(context.Background(), app, portal, regattaID)
	require.NoError(t, err)
	assert.Equal(t, 3, synced)

	eligible, err := app.ListEligibleEntries(context.Background(), regattaID)
	require.NoError(t, err)
	assert.Len(t, eligible, 2) // withdrawn boat stays on file but ineligible

	withdrawn, err := app.GetEntryBySailNumber(context.Background(), regattaID, "IRL 777")
	require.NoError(t, err)
	assert.False(t, withdrawn.Eligible)

	// Unparseable portal IDs get a locally minted UUID.
	minted, err := app.GetEntryBySailNumber(context.Background(), regattaID, "GBR 1899")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, minted.ID)
}

func TestSyncFromPortalIsIdempotentOnSailNumber(t *testing.T) {
	repo := newFakeRosterRepo()
	app := NewApp(repo)
	regattaID := uuid.New()

	portal := &fakePortal{entries: []registration_client.Entry{
		{ID: uuid.New().String(), SailNumber: "GBR 4201", BoatName: "Windshift", PaidUp: true},
	}}

	_, err := SyncFromPortal(context.Background(), app, portal, regattaID)
	require.NoError(t, err)
	first, err := app.GetEntryBySailNumber(context.Background(), regattaID, "GBR 4201")
	require.NoError(t, err)

	// Second sync with a renamed boat updates in place.
	portal.entries[0].BoatName = "Windshift II"
	_, err = SyncFromPortal(context.Background(), app, portal, regattaID)
	require.NoError(t, err)

	second, err := app.GetEntryBySailNumber(context.Background(), regattaID, "GBR 4201")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Windshift II", second.BoatName)
}

func TestSyncFromPortalPropagatesFetchError(t *testing.T) {
	app := NewApp(newFakeRosterRepo())

	_, err := SyncFromPortal(context.Background(), app, &fakePortal{err: errors.New("portal down")}, uuid.New())
	assert.Error(t, err)
}

func TestGetEntryBySailNumberRequiresSailNumber(t *testing.T) {
	app := NewApp(newFakeRosterRepo())

	_, err := app.GetEntryBySailNumber(context.Background(), uuid.New(), "")
	assert.Error(t, err)
}
