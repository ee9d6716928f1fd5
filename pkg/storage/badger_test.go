package storage

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetimed/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func testAthlete(id string) domain.Athlete {
	return domain.Athlete{
		ID:          id,
		Name:        "Usain",
		Surname:     "Bolt",
		CountryID:   "JAM",
		Sex:         domain.SexMale,
		DateOfBirth: time.Date(1986, 8, 21, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddOrUpdateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ath := testAthlete("a1")

	require.NoError(t, s.AddOrUpdate(ath))

	var got domain.Athlete
	ok, err := s.GetValue(domain.AthleteKind, "a1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ath, got)
}

func TestAddOrUpdateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ath := testAthlete("a1")

	require.NoError(t, s.AddOrUpdate(ath))
	require.NoError(t, s.AddOrUpdate(ath))

	keys, err := s.Keys(domain.AthleteKind)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, keys)

	var got domain.Athlete
	ok, err := s.GetValue(domain.AthleteKind, "a1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ath, got)
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	buf, ok, err := s.Get(domain.AthleteKind, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, buf)

	exists, err := s.Exists(domain.AthleteKind, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKeysEnumeratesOnlyKind(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddOrUpdate(testAthlete("a1")))
	require.NoError(t, s.AddOrUpdate(testAthlete("a2")))
	require.NoError(t, s.AddOrUpdate(domain.Device{ID: "d1", Type: domain.DeviceStartingGun}))

	keys, err := s.Keys(domain.AthleteKind)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, keys)
}

func TestDeleteRemovesValueAndMembership(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddOrUpdate(testAthlete("a1")))
	require.NoError(t, s.Delete(domain.AthleteKind, "a1"))

	_, ok, err := s.Get(domain.AthleteKind, "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.Keys(domain.AthleteKind)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
