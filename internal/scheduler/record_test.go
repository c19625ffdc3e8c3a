package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

var base = time.Unix(1_700_000_000, 0)

func recordAt(t time.Time) *RunRecord {
	r := NewRunRecord(t)
	return &r
}

func TestIsDue_NeverRun(t *testing.T) {
	for _, d := range []time.Duration{0, day, 4 * day, 365 * day} {
		assert.True(t, IsDue(base, nil, d), "interval %v", d)
	}
}

func TestIsDue_Boundaries(t *testing.T) {
	interval := 4 * day
	last := recordAt(base)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"immediately", 0, false},
		{"one second in", time.Second, false},
		{"just before", interval - time.Second, false},
		{"exactly interval", interval, true},
		{"one second after", interval + time.Second, true},
		{"five days", 5 * day, true},
		{"clock moved backwards", -time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDue(base.Add(tc.elapsed), last, interval))
		})
	}
}

func TestIsDue_OtherIntervals(t *testing.T) {
	for _, days := range []int{1, 2, 7} {
		interval := time.Duration(days) * day
		last := recordAt(base)
		assert.False(t, IsDue(base.Add(interval-time.Minute), last, interval), "days=%d", days)
		assert.True(t, IsDue(base.Add(interval), last, interval), "days=%d", days)
	}
}

func TestRunRecord_TimeRoundTrip(t *testing.T) {
	rec := NewRunRecord(base)
	assert.Equal(t, float64(1_700_000_000), rec.Timestamp)
	assert.True(t, rec.Time().Equal(base))
	assert.Equal(t, base.Format("2006-01-02 15:04:05"), rec.Date)
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_RecordRunIdempotent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), ".tmp"), nil)

	first, err := s.RecordRun(base)
	require.NoError(t, err)
	loaded, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, first, *loaded)
	assert.False(t, IsDue(base, loaded, DefaultInterval))

	_, err = s.RecordRun(base)
	require.NoError(t, err)
	loaded, err = s.Load()
	require.NoError(t, err)
	assert.False(t, IsDue(base, loaded, DefaultInterval))
}

func TestStore_CorruptRecordTreatedAsNeverRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RecordFile), []byte("not json"), 0644))

	rec, err := NewStore(dir, nil).Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ReadsFractionalTimestamp(t *testing.T) {
	dir := t.TempDir()
	body := `{"timestamp": 1700000000.25, "date": "2023-11-14 22:13:20"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, RecordFile), []byte(body), 0644))

	rec, err := NewStore(dir, nil).Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1700000000.25, rec.Timestamp)
	assert.Equal(t, int64(250_000_000), int64(rec.Time().Nanosecond()))
}
