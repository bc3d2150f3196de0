package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkdrop/internal/pkg/testsupport"
	"linkdrop/internal/stats"
)

func newStats(t *testing.T) *stats.Stats {
	t.Helper()
	st, err := stats.Load(testsupport.SetupStore(t), zap.NewNop())
	require.NoError(t, err)
	return st
}

func TestRecordClaimBucketsEveryCounter(t *testing.T) {
	st := newStats(t)

	at := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	st.RecordClaim("alice", "https://a.test", at)
	st.RecordClaim("alice", "https://b.test", at.Add(time.Minute))
	st.RecordClaim("bob", "https://a.test", at.Add(25*time.Hour))

	assert.Equal(t, 3, st.Total())

	days, err := st.TopN(stats.CounterDay, -1)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, stats.Entry{Key: "2026-03-14", Count: 2}, days[0])
	assert.Equal(t, stats.Entry{Key: "2026-03-15", Count: 1}, days[1])

	hours, err := st.TopN(stats.CounterHour, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Entry{Key: "15", Count: 2}, hours[0])

	links, err := st.TopN(stats.CounterLink, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Entry{Key: "https://a.test", Count: 2}, links[0])

	identities, err := st.TopN(stats.CounterIdentity, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Entry{Key: "alice", Count: 2}, identities[0])
}

func TestTopNBreaksTiesByFirstSeen(t *testing.T) {
	st := newStats(t)

	at := time.Now().UTC()
	st.RecordClaim("zed", "https://z.test", at)
	st.RecordClaim("amy", "https://a.test", at)

	identities, err := st.TopN(stats.CounterIdentity, -1)
	require.NoError(t, err)
	require.Len(t, identities, 2)
	assert.Equal(t, "zed", identities[0].Key, "first-seen wins ties")
	assert.Equal(t, "amy", identities[1].Key)
}

func TestTopNUnknownCounter(t *testing.T) {
	st := newStats(t)

	_, err := st.TopN("bogus", 5)
	assert.Error(t, err)
}

func TestStatsPersistAcrossRestart(t *testing.T) {
	store := testsupport.SetupStore(t)

	st, err := stats.Load(store, zap.NewNop())
	require.NoError(t, err)

	at := time.Now().UTC()
	st.RecordClaim("alice", "https://a.test", at)
	st.RecordClaim("alice", "https://a.test", at)

	reloaded, err := stats.Load(store, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, reloaded.Total())
	links, err := reloaded.TopN(stats.CounterLink, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Entry{Key: "https://a.test", Count: 2}, links[0])
}
