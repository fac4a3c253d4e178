package entities

import (
	"sort"
	"time"
)

// EditRecord is the text a todo carried before an edit, and when the edit happened
type EditRecord struct {
	Text     string    `json:"text"`
	EditedAt time.Time `json:"editedAt"`
}

// NewEditRecord snapshots previous text at the given time
func NewEditRecord(previous string, at time.Time) EditRecord {
	return EditRecord{Text: previous, EditedAt: at}
}

// SortHistory orders records newest first. Records with equal timestamps keep
// their relative order.
func SortHistory(records []EditRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EditedAt.After(records[j].EditedAt)
	})
}
