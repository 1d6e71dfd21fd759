package visibility

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var syndicates = []string{
	"Steel Meridian", "Arbiters of Hexis", "Cephalon Suda",
	"The Perrin Sequence", "Red Veil", "New Loka",
}

func TestShouldBeVisible(t *testing.T) {
	cases := []struct {
		name      string
		item      []string
		exhausted []string
		want      bool
	}{
		{"no syndicates", nil, []string{"Red Veil"}, true},
		{"no syndicates nothing exhausted", nil, nil, true},
		{"nothing exhausted", []string{"Red Veil"}, nil, true},
		{"single exhausted", []string{"Red Veil"}, []string{"Red Veil"}, false},
		{"one of two exhausted", []string{"Red Veil", "New Loka"}, []string{"Red Veil"}, true},
		{"both exhausted", []string{"Red Veil", "New Loka"}, []string{"New Loka", "Steel Meridian", "Red Veil"}, false},
		{"unrelated exhausted", []string{"Cephalon Suda"}, []string{"Red Veil"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ShouldBeVisible(tc.item, tc.exhausted))
		})
	}
}

func randomSubset(r *rand.Rand) []string {
	var out []string
	for _, s := range syndicates {
		if r.Intn(2) == 0 {
			out = append(out, s)
		}
	}
	return out
}

func isSubset(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	for _, s := range a {
		if !set[s] {
			return false
		}
	}
	return true
}

// Hidden exactly when a non-empty item set is contained in the exhausted set.
func TestShouldBeVisible_SubsetProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		item := randomSubset(r)
		exhausted := randomSubset(r)

		got := ShouldBeVisible(item, exhausted)
		if len(item) == 0 {
			require.True(t, got, "empty item set must be visible (exhausted=%v)", exhausted)
			continue
		}
		require.Equal(t, !isSubset(item, exhausted), got, "item=%v exhausted=%v", item, exhausted)
	}
}
