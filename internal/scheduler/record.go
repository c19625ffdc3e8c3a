// Package scheduler gates the CAS pipeline to at most one successful run per
// interval. The only state is a single RunRecord file, overwritten after each
// successful run and never deleted.
package scheduler

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the spacing between reflections.
const DefaultInterval = 4 * 24 * time.Hour

// RecordFile is the run record's name inside the scratch directory.
const RecordFile = "last_run.json"

const dateLayout = "2006-01-02 15:04:05"

// RunRecord marks the last successful pipeline completion.
type RunRecord struct {
	Timestamp float64 `json:"timestamp"` // unix seconds
	Date      string  `json:"date"`
}

// NewRunRecord builds the record for a completion at now.
func NewRunRecord(now time.Time) RunRecord {
	return RunRecord{
		Timestamp: unixSeconds(now),
		Date:      now.Format(dateLayout),
	}
}

// Time converts the timestamp back to a time.Time.
func (r RunRecord) Time() time.Time {
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// IsDue reports whether the pipeline should run: always when it never ran,
// otherwise once at least interval has elapsed since the last record.
func IsDue(now time.Time, last *RunRecord, interval time.Duration) bool {
	if last == nil {
		return true
	}
	return unixSeconds(now)-last.Timestamp >= interval.Seconds()
}

// DaysSince returns the elapsed days since the record, or +Inf for nil.
func DaysSince(now time.Time, last *RunRecord) float64 {
	if last == nil {
		return math.Inf(1)
	}
	return (unixSeconds(now) - last.Timestamp) / (24 * 3600)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Store persists the RunRecord as JSON. No locking: a single writer is assumed.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore returns a store writing to dir/last_run.json.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: filepath.Join(dir, RecordFile), logger: logger}
}

// Path returns the record file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted record, or nil when none exists. An unreadable
// or corrupt record is treated as never-run so the pipeline can recover.
func (s *Store) Load() (*RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run record: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Timestamp <= 0 {
		s.logger.Warn("ignoring unusable run record", zap.String("path", s.path), zap.Error(err))
		return nil, nil
	}
	return &rec, nil
}

// RecordRun overwrites the record with now. Call it only after every stage
// reported success.
func (s *Store) RecordRun(now time.Time) (RunRecord, error) {
	rec := NewRunRecord(now)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return RunRecord{}, fmt.Errorf("marshal run record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return RunRecord{}, fmt.Errorf("create scratch dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return RunRecord{}, fmt.Errorf("write run record: %w", err)
	}
	return rec, nil
}
