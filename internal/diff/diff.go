// Package diff folds the commits of a push event into the set of files
// that must be written or removed.
package diff

import (
	"slices"

	"github.com/nahidhasan98/orgsync/internal/models"
)

// DesignatedRef is the only ref whose pushes are synchronized by default
const DesignatedRef = "refs/heads/master"

// ChangeSet lists the files to upsert and the files to delete.
// A path is never present in both lists; each keeps first-insertion order.
type ChangeSet struct {
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// Empty reports whether there is nothing to do
func (c *ChangeSet) Empty() bool {
	return len(c.Modified) == 0 && len(c.Removed) == 0
}

// Reconcile folds a push on DesignatedRef into a ChangeSet.
// It returns false when the event is rejected.
func Reconcile(event models.PushEvent) (*ChangeSet, bool) {
	return ReconcileRef(event, DesignatedRef)
}

// ReconcileRef is Reconcile with an explicit designated ref.
// Events on any other ref, or without commits, are rejected.
func ReconcileRef(event models.PushEvent, ref string) (*ChangeSet, bool) {
	if event.Ref != ref {
		return nil, false
	}

	if len(event.Commits) == 0 {
		return nil, false
	}

	result := &ChangeSet{
		Modified: []string{},
		Removed:  []string{},
	}

	// Commits arrive oldest first, so a later commit overrides an earlier one.
	// Within a commit removals are applied last and win.
	for _, commit := range event.Commits {
		for _, path := range commit.Added {
			result.markModified(path)
		}
		for _, path := range commit.Modified {
			result.markModified(path)
		}
		for _, path := range commit.Removed {
			result.markRemoved(path)
		}
	}

	return result, true
}

// FromListing builds a ChangeSet for a full resync where every file counts as modified
func FromListing(files []string) *ChangeSet {
	result := &ChangeSet{
		Modified: []string{},
		Removed:  []string{},
	}
	for _, path := range files {
		result.markModified(path)
	}
	return result
}

func (c *ChangeSet) markModified(path string) {
	c.Removed = without(c.Removed, path)
	if !slices.Contains(c.Modified, path) {
		c.Modified = append(c.Modified, path)
	}
}

func (c *ChangeSet) markRemoved(path string) {
	c.Modified = without(c.Modified, path)
	if !slices.Contains(c.Removed, path) {
		c.Removed = append(c.Removed, path)
	}
}

func without(paths []string, path string) []string {
	return slices.DeleteFunc(paths, func(p string) bool {
		return p == path
	})
}
