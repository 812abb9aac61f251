package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/payerline/postcall/internal/record"
)

// buckets are the status-derived subdirectories under the storage root.
var buckets = []string{"approved", "pending", "denied", "failed"}

// Store persists finalized records under a status-bucketed directory tree.
// Filenames embed a sortable timestamp plus the call id, so concurrent calls
// with distinct call ids never collide.
type Store struct {
	root   string
	logger *slog.Logger

	// Clock supplies the filename timestamp. Overridable in tests.
	Clock func() time.Time
}

func New(root string, logger *slog.Logger) (*Store, error) {
	for _, b := range buckets {
		if err := os.MkdirAll(filepath.Join(root, b), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", b, err)
		}
	}
	logger.Info("record storage initialized", "root", root)
	return &Store{root: root, logger: logger, Clock: time.Now}, nil
}

// BucketFor maps every status to a bucket; the mapping is total.
func BucketFor(status record.Status) string {
	switch status {
	case record.StatusApproved:
		return "approved"
	case record.StatusDenied:
		return "denied"
	case record.StatusPending, record.StatusPeerToPeerRequired, record.StatusAdditionalInfo:
		return "pending"
	default:
		return "failed"
	}
}

// Save writes the canonical JSON representation and, best-effort, an adjacent
// human-readable summary. A summary write failure is logged only; the
// canonical write is the one that matters. With overwrite=false an existing
// path is left untouched and returned as-is.
func (s *Store) Save(rec *record.Record, overwrite bool) (string, error) {
	bucket := BucketFor(rec.Authorization.Status)
	ts := s.Clock().UTC().Format("20060102_150405")
	path := filepath.Join(s.root, bucket, fmt.Sprintf("%s_%s.json", ts, rec.CallID))

	if _, err := os.Stat(path); err == nil && !overwrite {
		s.logger.Warn("record file already exists, not overwriting", "path", path)
		return path, nil
	}

	rec.UpdatedAt = s.Clock().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record %s: %w", rec.CallID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write record %s: %w", rec.CallID, err)
	}
	s.logger.Info("record saved", "call_id", rec.CallID, "path", path)

	summaryPath := strings.TrimSuffix(path, ".json") + ".txt"
	if err := os.WriteFile(summaryPath, []byte(Summary(rec)), 0o644); err != nil {
		s.logger.Error("failed to write summary", "path", summaryPath, "error", err)
	}

	return path, nil
}

// Load reads a canonical record file back.
func (s *Store) Load(path string) (*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return &rec, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status  record.Status
	Outcome record.Outcome
	From    record.Date
	To      record.Date
}

// List returns record paths most-recent-first. Date filtering parses the
// timestamp embedded in the filename; files whose names don't conform are
// included rather than dropped.
func (s *Store) List(f ListFilter) ([]string, error) {
	search := buckets
	if f.Status != "" {
		search = []string{BucketFor(f.Status)}
	}

	var paths []string
	for _, bucket := range search {
		matches, err := filepath.Glob(filepath.Join(s.root, bucket, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", bucket, err)
		}
		for _, path := range matches {
			if !f.From.IsZero() || !f.To.IsZero() {
				if fileDate, ok := dateFromFilename(path); ok {
					if !f.From.IsZero() && fileDate.Before(f.From.Time) {
						continue
					}
					if !f.To.IsZero() && fileDate.After(f.To.Time) {
						continue
					}
				}
			}
			if f.Outcome != "" {
				rec, err := s.Load(path)
				if err != nil {
					s.logger.Error("failed to load record for outcome filter", "path", path, "error", err)
					continue
				}
				if rec.CallOutcome != f.Outcome {
					continue
				}
			}
			paths = append(paths, path)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Stats is the aggregate view over all stored records.
type Stats struct {
	TotalRecords int            `json:"total_records"`
	ByBucket     map[string]int `json:"by_bucket"`
	ByOutcome    map[string]int `json:"by_outcome"`
	RecentCalls  []RecentCall   `json:"recent_calls"`
}

// RecentCall is a compact view of one recently saved record.
type RecentCall struct {
	CallID  string `json:"call_id"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
	Patient string `json:"patient"`
}

const recentCallLimit = 10

// Aggregate returns per-bucket counts plus the most recently saved records,
// read back from their canonical files. Unloadable records are skipped and
// logged.
func (s *Store) Aggregate() (Stats, error) {
	stats := Stats{
		ByBucket:  make(map[string]int, len(buckets)),
		ByOutcome: make(map[string]int),
	}

	for _, bucket := range buckets {
		matches, err := filepath.Glob(filepath.Join(s.root, bucket, "*.json"))
		if err != nil {
			return stats, fmt.Errorf("count bucket %s: %w", bucket, err)
		}
		stats.ByBucket[bucket] = len(matches)
		stats.TotalRecords += len(matches)
	}

	paths, err := s.List(ListFilter{})
	if err != nil {
		return stats, err
	}
	for _, path := range paths {
		rec, err := s.Load(path)
		if err != nil {
			s.logger.Error("failed to load record for stats", "path", path, "error", err)
			continue
		}
		stats.ByOutcome[string(rec.CallOutcome)]++
		if len(stats.RecentCalls) < recentCallLimit {
			stats.RecentCalls = append(stats.RecentCalls, RecentCall{
				CallID:  rec.CallID,
				Date:    rec.CallDate.Format(time.RFC3339),
				Status:  string(rec.Authorization.Status),
				Outcome: string(rec.CallOutcome),
				Patient: rec.Patient.Name,
			})
		}
	}

	return stats, nil
}

// dateFromFilename extracts the YYYYMMDD prefix from a record filename.
func dateFromFilename(path string) (record.Date, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), ".json")
	prefix, _, found := strings.Cut(stem, "_")
	if !found {
		return record.Date{}, false
	}
	t, err := time.Parse("20060102", prefix)
	if err != nil {
		return record.Date{}, false
	}
	return record.DateOf(t), true
}
