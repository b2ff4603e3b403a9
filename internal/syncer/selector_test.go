package syncer

import (
	"testing"

	"github.com/alexjbarnes/clip-sync/internal/alist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name, modified string) alist.Entry {
	return alist.Entry{Name: name, Modified: modified}
}

func dir(name string) alist.Entry {
	return alist.Entry{Name: name, IsDir: true, Modified: "2099-01-01T00:00:00+00:00"}
}

func TestSelectLatest_NewestWins(t *testing.T) {
	entries := []alist.Entry{
		file("a.txt", "2024-01-01T00:00:00+00:00"),
		file("b.txt", "2024-06-01T00:00:00+00:00"),
		file("c.txt", "2023-12-31T23:59:59+00:00"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", latest.Name)
}

func TestSelectLatest_IgnoresDirectories(t *testing.T) {
	entries := []alist.Entry{
		dir("newer-looking-dir"),
		file("only-file.txt", "2024-01-01T00:00:00+00:00"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "only-file.txt", latest.Name)
}

func TestSelectLatest_EmptySet(t *testing.T) {
	_, err := selectLatest(nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestSelectLatest_OnlyDirectoriesIsEmpty(t *testing.T) {
	_, err := selectLatest([]alist.Entry{dir("a"), dir("b")})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestSelectLatest_ValidTimestampBeatsUnparsable(t *testing.T) {
	entries := []alist.Entry{
		file("bad.txt", "n/a"),
		file("good.txt", "2024-01-01T00:00:00+00:00"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "good.txt", latest.Name)

	// Order must not matter.
	latest, err = selectLatest([]alist.Entry{entries[1], entries[0]})
	require.NoError(t, err)
	assert.Equal(t, "good.txt", latest.Name)
}

func TestSelectLatest_LexicographicFallback(t *testing.T) {
	// Two unparsable stamps degrade to raw string comparison: "b" > "a".
	entries := []alist.Entry{
		file("first.txt", "b"),
		file("second.txt", "a"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "first.txt", latest.Name)
}

func TestSelectLatest_TieGoesToLaterListingPosition(t *testing.T) {
	entries := []alist.Entry{
		file("earlier.txt", "2024-01-01T00:00:00+00:00"),
		file("later.txt", "2024-01-01T00:00:00+00:00"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "later.txt", latest.Name)
}

func TestSelectLatest_CompactOffsetParses(t *testing.T) {
	entries := []alist.Entry{
		file("old.txt", "2024-01-01T00:00:00+0000"),
		file("new.txt", "2024-06-01T12:00:00+0800"),
	}

	latest, err := selectLatest(entries)
	require.NoError(t, err)
	assert.Equal(t, "new.txt", latest.Name)
}

func TestParseModified_Layouts(t *testing.T) {
	for _, raw := range []string{
		"2024-06-01T00:00:00+00:00",
		"2024-06-01T00:00:00Z",
		"2024-06-01T00:00:00.123456+08:00",
		"2024-06-01T00:00:00+0800",
		"2024-06-01 00:00:00 +0000",
	} {
		_, ok := parseModified(raw)
		assert.True(t, ok, "should parse %q", raw)
	}
}

func TestParseModified_Garbage(t *testing.T) {
	for _, raw := range []string{"", "n/a", "yesterday", "1718000000"} {
		_, ok := parseModified(raw)
		assert.False(t, ok, "should not parse %q", raw)
	}
}
