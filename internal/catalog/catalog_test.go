package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wfseller/internal/common"
	"wfseller/internal/rate_limiter"

	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type staticNames []string

func (s staticNames) Names(ctx context.Context) ([]string, error) { return s, nil }

type failingNames struct{ err error }

func (f failingNames) Names(ctx context.Context) ([]string, error) { return nil, f.err }

type mapResolver struct {
	ids   map[string]string
	calls []string
}

func (m *mapResolver) ResolveItemID(ctx context.Context, name string) (string, error) {
	m.calls = append(m.calls, name)
	if id, ok := m.ids[name]; ok {
		return id, nil
	}
	return "", common.ErrItemNotFound
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ---- Canonicalize ----

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Abating Link", "abating_link"},
		{"Hall Of Malevolence", "hall_of_malevolence"},
		{"Nezha's Safeguard", "nezhas_safeguard"},
		{"Mag’s Magnetic Rebound", "mags_magnetic_rebound"},
		{"Salvage & Recycle", "salvage_and_recycle"},
		{"already_canonical_name", "already_canonical_name"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Canonicalize(tc.in), "input %q", tc.in)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Abating Link", "Nezha's Safeguard", "A & B", "  spaced  out ", "MiXeD'Case&Stuff",
		"&&''  ", "Ünïcödé Näme", "tab\tseparated",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		require.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

// ---- Load / Lookup ----

func TestLookup_LegacyPairs(t *testing.T) {
	path := writeFile(t, `[["abating_link","54e644ffe779897594fa68d2"],["dread_ward","5a2feeb1c2c9e90cbdaa23d2"]]`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	id, err := c.Lookup("abating_link")
	require.NoError(t, err)
	require.Equal(t, "54e644ffe779897594fa68d2", id)

	_, err = c.Lookup("nonexistent_mod")
	require.ErrorIs(t, err, common.ErrItemNotFound)
}

func TestLookup_CanonicalizesQuery(t *testing.T) {
	path := writeFile(t, `{"abating_link":"54e644ffe779897594fa68d2"}`)

	c, err := Load(path)
	require.NoError(t, err)

	id, err := c.Lookup("Abating Link")
	require.NoError(t, err)
	require.Equal(t, "54e644ffe779897594fa68d2", id)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, err = Load(writeFile(t, `[["only_one"]]`))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, err = Load(writeFile(t, `"just a string"`))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestLoadOrEmpty_MissingFile(t *testing.T) {
	c, err := LoadOrEmpty(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, err)
	require.Zero(t, c.Len())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path)
	c.Set("abating_link", "54e644ffe779897594fa68d2")
	c.Set("Dread Ward", "5a2feeb1c2c9e90cbdaa23d2")
	c.Set("teeming_virulence", "58d8f31c11efe42a5e523215")
	require.NoError(t, c.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c.Entries(), loaded.Entries())
	require.Equal(t, []string{"abating_link", "dread_ward", "teeming_virulence"}, loaded.Names())
}

// ---- Refresh ----

func TestRefresh_OmitsFailuresAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path)
	c.Set("stale_item", "old")

	source := staticNames{"Abating Link", "Nezha's Safeguard", "abating link", "Unknown Mod"}
	resolver := &mapResolver{ids: map[string]string{
		"abating_link":     "id-1",
		"nezhas_safeguard": "id-2",
	}}

	n, err := c.Refresh(context.Background(), source, resolver, rate_limiter.CreateLimiter(0))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"abating_link", "nezhas_safeguard", "unknown_mod"}, resolver.calls, "duplicates are resolved once")

	require.Equal(t, map[string]string{"abating_link": "id-1", "nezhas_safeguard": "id-2"}, c.Entries())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c.Entries(), loaded.Entries())
}

func TestRefresh_SourceFailureKeepsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path)
	c.Set("abating_link", "id-1")

	_, err := c.Refresh(context.Background(), failingNames{err: errors.New("boom")}, &mapResolver{}, nil)
	require.Error(t, err)
	require.Equal(t, map[string]string{"abating_link": "id-1"}, c.Entries())
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestRefresh_Cancelled(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "catalog.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Refresh(ctx, staticNames{"Abating Link"}, &mapResolver{}, rate_limiter.CreateLimiter(0))
	require.ErrorIs(t, err, context.Canceled)
}

type sessionLostResolver struct{ calls int }

func (r *sessionLostResolver) ResolveItemID(ctx context.Context, name string) (string, error) {
	r.calls++
	return "", common.ErrSessionExpired
}

func TestRefresh_SessionLossKeepsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path)
	c.Set("abating_link", "id-1")
	c.Set("nezhas_safeguard", "id-2")
	require.NoError(t, c.Save())

	resolver := &sessionLostResolver{}
	_, err := c.Refresh(context.Background(), staticNames{"Abating Link", "Dread Ward"}, resolver, rate_limiter.CreateLimiter(0))
	require.ErrorIs(t, err, common.ErrNotAuthenticated)
	require.Equal(t, 1, resolver.calls, "refresh stops at the first session error")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	require.Equal(t, 2, c.Len())
}

func TestRefresh_NothingResolvedKeepsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path)
	c.Set("abating_link", "id-1")
	require.NoError(t, c.Save())

	_, err := c.Refresh(context.Background(), staticNames{"Abating Link"}, &mapResolver{}, rate_limiter.CreateLimiter(0))
	require.Error(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"abating_link": "id-1"}, loaded.Entries())
}
