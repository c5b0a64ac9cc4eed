package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/mail"
	"github.com/sandeep231004/gmailassistant/store/memory"
)

type fakeSearcher struct {
	items []mail.EmailItem
	err   error
}

func (s *fakeSearcher) Search(_ context.Context, _, _ string) ([]mail.EmailItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func newWatcherFixture(t *testing.T, searcher *fakeSearcher) (*Watcher, *conversation.Log, *memory.SeenStore) {
	t.Helper()
	log := conversation.NewLog(memory.NewConversationStore(), memory.NewSummaryStore())
	seen := memory.NewSeenStore()
	w := NewWatcher(searcher, staticResolver{accountID: "acct-1"}, seen, log)
	return w, log, seen
}

func TestWatcherBaselineDoesNotPoke(t *testing.T) {
	searcher := &fakeSearcher{items: []mail.EmailItem{
		{MessageID: "m1", Sender: "a@example.com", Subject: "Old news"},
		{MessageID: "m2", Sender: "b@example.com", Subject: "Older news"},
	}}
	w, log, seen := newWatcherFixture(t, searcher)

	require.NoError(t, w.Poll(context.Background()))

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	ok, err := seen.IsSeen("m1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWatcherPokesOnFreshMail(t *testing.T) {
	searcher := &fakeSearcher{items: []mail.EmailItem{
		{MessageID: "m1", Sender: "a@example.com", Subject: "Old news"},
	}}
	w, log, _ := newWatcherFixture(t, searcher)
	require.NoError(t, w.Poll(context.Background()))

	searcher.items = []mail.EmailItem{
		{MessageID: "m2", Sender: "sam@example.com", Subject: "Lunch"},
		{MessageID: "m1", Sender: "a@example.com", Subject: "Old news"},
	}
	require.NoError(t, w.Poll(context.Background()))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.ConversationPokeReply, entries[0].Kind)
	assert.Equal(t, "New email from sam@example.com: Lunch", entries[0].Payload)

	// The same items do not poke twice.
	require.NoError(t, w.Poll(context.Background()))
	entries, err = log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWatcherAnnouncesMultipleFreshMails(t *testing.T) {
	searcher := &fakeSearcher{items: []mail.EmailItem{
		{MessageID: "m0", Sender: "a@example.com", Subject: "Baseline"},
	}}
	w, log, _ := newWatcherFixture(t, searcher)
	require.NoError(t, w.Poll(context.Background()))

	// The newest message is deliberately not first; the headline must pick
	// it by timestamp.
	searcher.items = []mail.EmailItem{
		{MessageID: "m1", Sender: "kit@example.com", Subject: "Invoice", Timestamp: "2026-08-27T08:00:00Z"},
		{MessageID: "m2", Sender: "sam@example.com", Subject: "Lunch", Timestamp: "2026-08-28T09:15:00Z"},
		{MessageID: "m0", Sender: "a@example.com", Subject: "Baseline"},
	}
	require.NoError(t, w.Poll(context.Background()))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "You have 2 new emails. Latest from sam@example.com: Lunch", entries[0].Payload)
}

func TestWatcherWithoutAccountIsNoOp(t *testing.T) {
	log := conversation.NewLog(memory.NewConversationStore(), memory.NewSummaryStore())
	seen := memory.NewSeenStore()
	w := NewWatcher(&fakeSearcher{}, staticResolver{}, seen, log)

	require.NoError(t, w.Poll(context.Background()))

	ok, err := seen.HasEntries()
	require.NoError(t, err)
	assert.False(t, ok)
}
