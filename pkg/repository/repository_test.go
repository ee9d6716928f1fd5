package repository

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetimed/pkg/cache"
	"racetimed/pkg/domain"
	"racetimed/pkg/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(storage.New(db), cache.New(cache.NewBadgerTier(db)))
}

func TestGetFallsBackToStore(t *testing.T) {
	repo := newTestRepo(t)
	ath := domain.Athlete{ID: "a1", Name: "Usain", Surname: "Bolt", CountryID: "JAM", Sex: domain.SexMale}

	// written through the store only, bypassing the cache
	require.NoError(t, repo.Store().AddOrUpdate(ath))

	got, ok, err := Get[domain.Athlete](repo, domain.AthleteKind, "a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ath, got)
}

func TestGetAbsent(t *testing.T) {
	repo := newTestRepo(t)

	_, ok, err := Get[domain.Athlete](repo, domain.AthleteKind, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddOrUpdateWritesThrough(t *testing.T) {
	repo := newTestRepo(t)
	ath := domain.Athlete{ID: "a1", Name: "Usain", Surname: "Bolt", CountryID: "JAM", Sex: domain.SexMale}

	require.NoError(t, repo.AddOrUpdate(ath))

	got, ok, err := Get[domain.Athlete](repo, domain.AthleteKind, "a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ath, got)

	exists, err := repo.Exists(domain.AthleteKind, "a1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetAllSkipsMissingEntries(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.AddOrUpdate(domain.Athlete{ID: "a1", Name: "A", Surname: "One", CountryID: "JAM", Sex: domain.SexMale}))
	require.NoError(t, repo.AddOrUpdate(domain.Athlete{ID: "a2", Name: "B", Surname: "Two", CountryID: "USA", Sex: domain.SexFemale}))

	all, err := GetAll[domain.Athlete](repo, domain.AthleteKind)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// a value vanishing from under its collection entry is skipped, not fatal
	require.NoError(t, repo.cache.Remove(domain.StoreKey(domain.AthleteKind, "a1"), ""))
	all, err = GetAll[domain.Athlete](repo, domain.AthleteKind)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "a2", all[0].ID)
}

// optional fields survive the codec without zero-value confusion
func TestOptionalFieldsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	manufactured := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	withDate := domain.Device{ID: "d1", Type: domain.DeviceStartingGun, ManufactureDate: &manufactured}
	withoutDate := domain.Device{ID: "d2", Type: domain.DeviceFinishLineSensor}
	require.NoError(t, repo.AddOrUpdate(withDate))
	require.NoError(t, repo.AddOrUpdate(withoutDate))

	got1, ok, err := Get[domain.Device](repo, domain.DeviceKind, "d1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got1.ManufactureDate)
	assert.True(t, manufactured.Equal(*got1.ManufactureDate))

	got2, ok, err := Get[domain.Device](repo, domain.DeviceKind, "d2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got2.ManufactureDate)
}

func TestDeleteRemovesEverywhere(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.AddOrUpdate(domain.Athlete{ID: "a1", Name: "A", Surname: "One", CountryID: "JAM", Sex: domain.SexMale}))
	require.NoError(t, repo.Delete(domain.AthleteKind, "a1"))

	_, ok, err := Get[domain.Athlete](repo, domain.AthleteKind, "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := repo.Exists(domain.AthleteKind, "a1")
	require.NoError(t, err)
	assert.False(t, exists)
}
