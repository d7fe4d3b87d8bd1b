package domain

// ProgressChange is a library item whose percent complete went up.
type ProgressChange struct {
	Book            KindleBook `json:"book"`
	PreviousPercent int        `json:"previous_percent"`
}

// ChangeSet classifies the current library against the previous snapshot.
// ProgressChanges and RecentlyOpened are independent; an item may be in both.
type ChangeSet struct {
	NewBooks        []KindleBook     `json:"new_books"`
	ProgressChanges []ProgressChange `json:"progress_changes"`
	RecentlyOpened  []KindleBook     `json:"recently_opened"`
}

// DetectChanges diffs the current library against the previous snapshot.
//
// With no previous snapshot every item is new. Otherwise items are matched by
// ASIN: unmatched items are new, a strictly higher percent complete is a
// progress change, and a strictly later last-opened time is a recent open.
// Both sides must carry the value for the last two to apply. Items missing
// from current are ignored.
func DetectChanges(previous *KindleSnapshot, current []KindleBook) ChangeSet {
	var changes ChangeSet

	if previous == nil {
		changes.NewBooks = append(changes.NewBooks, current...)
		return changes
	}

	prevByASIN := make(map[string]KindleBook, len(previous.Books))
	for _, b := range previous.Books {
		prevByASIN[b.ASIN] = b
	}

	for _, cur := range current {
		prev, ok := prevByASIN[cur.ASIN]
		if !ok {
			changes.NewBooks = append(changes.NewBooks, cur)
			continue
		}

		if cur.PercentComplete != nil && prev.PercentComplete != nil &&
			*cur.PercentComplete > *prev.PercentComplete {
			changes.ProgressChanges = append(changes.ProgressChanges, ProgressChange{
				Book:            cur,
				PreviousPercent: *prev.PercentComplete,
			})
		}

		if cur.LastOpenedAt != nil && prev.LastOpenedAt != nil &&
			cur.LastOpenedAt.After(*prev.LastOpenedAt) {
			changes.RecentlyOpened = append(changes.RecentlyOpened, cur)
		}
	}

	return changes
}
