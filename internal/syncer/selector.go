package syncer

import (
	"time"

	"github.com/alexjbarnes/clip-sync/internal/alist"
)

// modifiedLayouts are the timestamp shapes alist storage backends have
// been seen to produce, including offsets without a colon.
var modifiedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05 -0700",
}

// parseModified parses a raw server timestamp.
func parseModified(raw string) (time.Time, bool) {
	for _, layout := range modifiedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// modKey carries one entry's comparable modification key. Entries whose
// timestamp failed to parse compare by the raw string, a degraded but
// deterministic fallback; they never silently drop out of selection.
type modKey struct {
	t      time.Time
	parsed bool
	raw    string
}

// newer reports whether a was modified strictly after b. A parsed
// timestamp always outranks an unparsable one.
func (a modKey) newer(b modKey) bool {
	switch {
	case a.parsed && b.parsed:
		return a.t.After(b.t)
	case a.parsed != b.parsed:
		return a.parsed
	default:
		return a.raw > b.raw
	}
}

// selectLatest returns the most recently modified file entry. Directory
// entries are never candidates. Ties go to the later listing position.
// An empty candidate set returns ErrNoContent.
func selectLatest(entries []alist.Entry) (alist.Entry, error) {
	var (
		best    alist.Entry
		bestKey modKey
		found   bool
	)

	for _, e := range entries {
		if e.IsDir {
			continue
		}

		t, parsed := parseModified(e.Modified)
		key := modKey{t: t, parsed: parsed, raw: e.Modified}

		// Last-seen wins on ties, so replace unless the current best
		// is strictly newer.
		if !found || !bestKey.newer(key) {
			best = e
			bestKey = key
			found = true
		}
	}

	if !found {
		return alist.Entry{}, ErrNoContent
	}

	return best, nil
}
