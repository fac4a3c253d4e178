package abstractions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachHistory(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first := uuid.New().String()
	second := uuid.New().String()

	rows := []TodoRow{
		{ID: first, Owner: "u", Text: "C", CreatedAt: base.Add(time.Hour)},
		{ID: second, Owner: "u", Text: "other", CreatedAt: base},
	}
	history := []HistoryRow{
		{ID: uuid.New().String(), TodoID: first, Text: "A", EditedAt: base.Add(time.Minute)},
		{ID: uuid.New().String(), TodoID: first, Text: "B", EditedAt: base.Add(2 * time.Minute)},
	}

	todos, err := AttachHistory(rows, history)
	require.NoError(t, err)
	require.Len(t, todos, 2)

	assert.Equal(t, first, todos[0].ID().String())
	got := todos[0].EditHistory()
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Text)
	assert.Equal(t, "A", got[1].Text)
	assert.Empty(t, todos[1].EditHistory())
}

func TestAttachHistory_InvalidRow(t *testing.T) {
	_, err := AttachHistory([]TodoRow{{ID: "bad", Owner: "u", Text: "x"}}, nil)
	assert.Error(t, err)
}

func TestCountStats(t *testing.T) {
	now := time.Now()
	stats := CountStats([]TodoRow{
		{Completed: false},
		{Completed: true, CompletedAt: &now},
		{Completed: false},
	})
	assert.Equal(t, 2, stats.ActiveCount)
	assert.Equal(t, 1, stats.CompletedCount)
}

func TestPartition_Matches(t *testing.T) {
	assert.True(t, PartitionActive.Matches(false))
	assert.False(t, PartitionActive.Matches(true))
	assert.True(t, PartitionCompleted.Matches(true))
	assert.True(t, PartitionAll.Matches(true))
	assert.True(t, PartitionAll.Matches(false))
}
