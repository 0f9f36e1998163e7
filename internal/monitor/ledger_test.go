package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordCounts(t *testing.T) {
	t.Parallel()
	l := NewLedger(0)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Second

	c := l.Record("u1", "hi", base, window)
	assert.Equal(t, Counts{PrevSpam: 0, Spam: 1, PrevDuplicate: 0, Duplicate: 1}, c)

	c = l.Record("u2", "hi", base.Add(100*time.Millisecond), window)
	assert.Equal(t, Counts{Spam: 1, Duplicate: 1}, c, "other authors are not counted")

	c = l.Record("u1", "hi", base.Add(2*time.Second), window)
	assert.Equal(t, Counts{PrevSpam: 1, Spam: 2, PrevDuplicate: 1, Duplicate: 2}, c, "window start is inclusive")

	c = l.Record("u1", "other", base.Add(3*time.Second), window)
	assert.Equal(t, Counts{PrevSpam: 1, Spam: 2, PrevDuplicate: 0, Duplicate: 1}, c)
}

func TestLedgerDuplicatesIgnoreWindow(t *testing.T) {
	t.Parallel()
	l := NewLedger(0)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var c Counts
	for i := 0; i < 4; i++ {
		c = l.Record("u1", "same", base.Add(time.Duration(i)*time.Hour), time.Second)
	}
	assert.Equal(t, 1, c.Spam)
	assert.Equal(t, 3, c.PrevDuplicate)
	assert.Equal(t, 4, c.Duplicate)
}

func TestLedgerLimit(t *testing.T) {
	t.Parallel()
	l := NewLedger(3)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		l.Record("u1", "x", base.Add(time.Duration(i)*time.Millisecond), time.Minute)
	}
	state := l.Snapshot()
	require.Len(t, state.Activity, 3)
	require.Len(t, state.Messages, 3)
	assert.Equal(t, base.Add(2*time.Millisecond), state.Activity[0].At)
}

func TestLedgerPurgeKeepsMarks(t *testing.T) {
	t.Parallel()
	l := NewLedger(0)
	now := time.Now()
	l.Record("u1", "a", now, time.Second)
	l.Record("u2", "b", now, time.Second)
	l.Record("u1", "c", now, time.Second)

	assert.True(t, l.Mark(TierKick, "u1"))
	assert.False(t, l.Mark(TierKick, "u1"), "second mark is a no-op")
	l.Purge("u1")

	state := l.Snapshot()
	assert.Equal(t, []ActivityRecord{{At: now, AuthorID: "u2"}}, state.Activity)
	assert.Equal(t, []MessageRecord{{Content: "b", AuthorID: "u2"}}, state.Messages)
	assert.True(t, l.Marked(TierKick, "u1"))
	assert.False(t, l.Marked(TierWarn, "u1"))
}

func TestLedgerResetIsTotal(t *testing.T) {
	t.Parallel()
	l := NewLedger(0)
	l.Record("u1", "a", time.Now(), time.Second)
	l.Mark(TierWarn, "u1")
	l.Mark(TierKick, "u2")
	l.Mark(TierBan, "u3")
	l.Reach(TierBan, "u4")

	cleared := l.Reset()
	assert.Len(t, cleared.Activity, 1)
	assert.Equal(t, []string{"u1"}, cleared.Warned)
	assert.Equal(t, []string{"u2"}, cleared.RemovedTemporarily)
	assert.Equal(t, []string{"u3"}, cleared.RemovedPermanently)

	state := l.Snapshot()
	assert.Empty(t, state.Activity)
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.Warned)
	assert.Empty(t, state.RemovedTemporarily)
	assert.Empty(t, state.RemovedPermanently)
	assert.False(t, l.Reached(TierBan, "u4"))
}

func TestLedgerReachIsNotAnEscalation(t *testing.T) {
	t.Parallel()
	l := NewLedger(0)

	assert.True(t, l.Reach(TierBan, "u1"))
	assert.False(t, l.Reach(TierBan, "u1"))
	assert.True(t, l.Reached(TierBan, "u1"))
	assert.False(t, l.Marked(TierBan, "u1"))
	assert.Empty(t, l.Snapshot().RemovedPermanently)
}
