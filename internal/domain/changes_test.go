package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestDetectChanges_FirstSyncClassifiesEverythingNew(t *testing.T) {
	current := []KindleBook{
		{ASIN: "A1", PercentComplete: intPtr(20)},
		{ASIN: "A2"},
		{ASIN: "A3", LastOpenedAt: timePtr(time.Now())},
	}

	changes := DetectChanges(nil, current)

	assert.Equal(t, current, changes.NewBooks)
	assert.Empty(t, changes.ProgressChanges)
	assert.Empty(t, changes.RecentlyOpened)
}

func TestDetectChanges_OnlyStrictIncreasesAreProgress(t *testing.T) {
	previous := &KindleSnapshot{Books: []KindleBook{
		{ASIN: "same", PercentComplete: intPtr(40)},
		{ASIN: "regressed", PercentComplete: intPtr(40)},
		{ASIN: "advanced", PercentComplete: intPtr(40)},
		{ASIN: "unknown-before"},
		{ASIN: "unknown-now", PercentComplete: intPtr(10)},
	}}
	current := []KindleBook{
		{ASIN: "same", PercentComplete: intPtr(40)},
		{ASIN: "regressed", PercentComplete: intPtr(30)},
		{ASIN: "advanced", PercentComplete: intPtr(55)},
		{ASIN: "unknown-before", PercentComplete: intPtr(50)},
		{ASIN: "unknown-now"},
	}

	changes := DetectChanges(previous, current)

	require.Len(t, changes.ProgressChanges, 1)
	assert.Equal(t, "advanced", changes.ProgressChanges[0].Book.ASIN)
	assert.Equal(t, 40, changes.ProgressChanges[0].PreviousPercent)
	assert.Empty(t, changes.NewBooks)
}

func TestDetectChanges_ProgressScenario(t *testing.T) {
	previous := &KindleSnapshot{Books: []KindleBook{{ASIN: "A1", PercentComplete: intPtr(20)}}}
	current := []KindleBook{{ASIN: "A1", PercentComplete: intPtr(45)}}

	changes := DetectChanges(previous, current)

	require.Len(t, changes.ProgressChanges, 1)
	assert.Equal(t, 45, *changes.ProgressChanges[0].Book.PercentComplete)
	assert.Equal(t, 20, changes.ProgressChanges[0].PreviousPercent)
}

func TestDetectChanges_RecentlyOpenedIsIndependent(t *testing.T) {
	earlier := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	previous := &KindleSnapshot{Books: []KindleBook{
		{ASIN: "both", PercentComplete: intPtr(10), LastOpenedAt: timePtr(earlier)},
		{ASIN: "opened-only", PercentComplete: intPtr(10), LastOpenedAt: timePtr(earlier)},
		{ASIN: "same-time", LastOpenedAt: timePtr(later)},
		{ASIN: "never-opened-before"},
	}}
	current := []KindleBook{
		{ASIN: "both", PercentComplete: intPtr(20), LastOpenedAt: timePtr(later)},
		{ASIN: "opened-only", PercentComplete: intPtr(10), LastOpenedAt: timePtr(later)},
		{ASIN: "same-time", LastOpenedAt: timePtr(later)},
		{ASIN: "never-opened-before", LastOpenedAt: timePtr(later)},
	}

	changes := DetectChanges(previous, current)

	require.Len(t, changes.ProgressChanges, 1)
	assert.Equal(t, "both", changes.ProgressChanges[0].Book.ASIN)

	var opened []string
	for _, b := range changes.RecentlyOpened {
		opened = append(opened, b.ASIN)
	}
	assert.Equal(t, []string{"both", "opened-only"}, opened)
}

func TestDetectChanges_NewAndRemoved(t *testing.T) {
	previous := &KindleSnapshot{Books: []KindleBook{{ASIN: "gone"}, {ASIN: "kept"}}}
	current := []KindleBook{{ASIN: "kept"}, {ASIN: "fresh"}}

	changes := DetectChanges(previous, current)

	require.Len(t, changes.NewBooks, 1)
	assert.Equal(t, "fresh", changes.NewBooks[0].ASIN)
}

func TestDetectChanges_EmptySnapshotIsNotFirstSync(t *testing.T) {
	changes := DetectChanges(&KindleSnapshot{}, []KindleBook{{ASIN: "A1"}})

	require.Len(t, changes.NewBooks, 1)
}
