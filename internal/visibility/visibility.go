package visibility

// ShouldBeVisible reports whether a listing for an item obtainable from
// itemSyndicates should be shown, given the syndicates the user has already
// exhausted. The listing is hidden only when every one of the item's
// syndicates is exhausted. An item with no syndicates is always visible.
func ShouldBeVisible(itemSyndicates, exhaustedSyndicates []string) bool {
	if len(itemSyndicates) == 0 {
		return true
	}

	exhausted := make(map[string]struct{}, len(exhaustedSyndicates))
	for _, s := range exhaustedSyndicates {
		exhausted[s] = struct{}{}
	}

	for _, s := range itemSyndicates {
		if _, ok := exhausted[s]; !ok {
			return true
		}
	}
	return false
}
