package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/chatgate/internal/catalog"
	"github.com/nfrund/chatgate/internal/chat"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records scheduled tasks instead of running them.
type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	tasks  []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.tasks = append(s.tasks, f)
}

func (s *fakeScheduler) runAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, f := range tasks {
		f()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type post struct {
	identity domain.Identity
	text     string
}

// fakePoster implements Poster for testing
type fakePoster struct {
	mu    sync.Mutex
	posts []post
	err   error
	panic bool
}

func (p *fakePoster) Post(_ context.Context, identity domain.Identity, text string) (domain.MessageView, error) {
	if p.panic {
		panic("store exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return domain.MessageView{}, p.err
	}
	p.posts = append(p.posts, post{identity: identity, text: text})
	return domain.MessageView{ID: "message:99", UserID: identity.UserID.String(), UserName: identity.UserName, Text: text}, nil
}

func (p *fakePoster) all() []post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]post(nil), p.posts...)
}

// stubSearcher implements catalog.Searcher for testing
type stubSearcher struct {
	results catalog.Results
	err     error
}

func (s stubSearcher) Search(context.Context, string) (catalog.Results, error) {
	return s.results, s.err
}

func TestComposer_Reply(t *testing.T) {
	var c Composer
	found := catalog.Results{
		Songs: []catalog.Song{
			{ID: "1", Title: "One", Artist: "A"},
			{ID: "2", Title: "Two", Artist: "B"},
			{ID: "3", Title: "Three", Artist: "C"},
			{ID: "4", Title: "Four", Artist: "D"},
		},
		Albums: []catalog.Album{{ID: "x", Title: "Record", Artist: "A", Year: 2001}},
	}

	tests := []struct {
		name    string
		text    string
		results catalog.Results
		want    string
	}{
		{"greeting", "Hello there", catalog.Results{}, ReplyGreeting},
		{"greeting with accents and case", "HÉLLO!!", catalog.Results{}, ReplyGreeting},
		{"thanks", "thanks a lot", catalog.Results{}, ReplyThanks},
		{"help", "can you help?", catalog.Results{}, ReplyHelp},
		{"recommendation", "Suggest something", catalog.Results{}, ReplyRecommendation},
		{"substring is not a keyword", "this is a thin line", catalog.Results{}, `I could not find anything for "this is a thin line" in the catalog. Try an artist, a song or an album name.`},
		{"results win over keywords", "hi", found, "Here is what I found for \"hi\":\nSongs: One by A; Two by B; Three by C\nAlbums: Record by A (2001)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Reply(tt.text, tt.results))
		})
	}
}

func TestComposer_ReplyIsNeverEmpty(t *testing.T) {
	var c Composer
	for _, text := range []string{"", "   ", "???", "zzzz", "日本語"} {
		assert.NotEmpty(t, c.Reply(text, catalog.Results{}), "text %q", text)
	}
}

func TestComposer_IsDeterministic(t *testing.T) {
	var c Composer
	results := catalog.Results{Songs: []catalog.Song{{ID: "1", Title: "So What", Artist: "Miles Davis"}}}
	assert.Equal(t, c.Reply("miles", results), c.Reply("miles", results))
}

func TestResponder_ScheduleUsesDelayWithinBounds(t *testing.T) {
	sched := &fakeScheduler{}
	r := NewResponder(nil, &fakePoster{}, Options{Scheduler: sched})

	for i := 0; i < 200; i++ {
		r.Schedule("hello")
	}

	require.Len(t, sched.delays, 200)
	for _, d := range sched.delays {
		assert.GreaterOrEqual(t, d, DefaultMinDelay)
		assert.LessOrEqual(t, d, DefaultMaxDelay)
	}
}

func TestResponder_ScheduleDoesNotRunImmediately(t *testing.T) {
	sched := &fakeScheduler{}
	poster := &fakePoster{}
	r := NewResponder(nil, poster, Options{Scheduler: sched})

	r.Schedule("hello")
	assert.Empty(t, poster.all())
	assert.Equal(t, 1, sched.pending())

	sched.runAll()

	posts := poster.all()
	require.Len(t, posts, 1)
	assert.Equal(t, domain.Assistant, posts[0].identity)
	assert.Equal(t, ReplyGreeting, posts[0].text)
}

func TestResponder_RespondWithSearchResults(t *testing.T) {
	poster := &fakePoster{}
	searcher := stubSearcher{results: catalog.Results{Albums: []catalog.Album{{ID: "a1", Title: "Kind of Blue", Artist: "Miles Davis", Year: 1959}}}}
	r := NewResponder(searcher, poster, Options{})

	r.Respond(context.Background(), "miles")

	posts := poster.all()
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].text, "Kind of Blue by Miles Davis (1959)")
}

func TestResponder_EmptyResultsFallBack(t *testing.T) {
	poster := &fakePoster{}
	r := NewResponder(stubSearcher{}, poster, Options{})

	r.Respond(context.Background(), "obscure band")

	posts := poster.all()
	require.Len(t, posts, 1)
	assert.NotEmpty(t, posts[0].text)
	assert.Contains(t, posts[0].text, "could not find")
}

func TestResponder_SearchFailureFallsBack(t *testing.T) {
	poster := &fakePoster{}
	r := NewResponder(stubSearcher{err: errors.New("index offline")}, poster, Options{})

	r.Respond(context.Background(), "thanks")

	posts := poster.all()
	require.Len(t, posts, 1)
	assert.Equal(t, ReplyThanks, posts[0].text)
}

func TestResponder_PostFailureIsDropped(t *testing.T) {
	r := NewResponder(nil, &fakePoster{err: domain.ErrPersistence}, Options{})
	assert.NotPanics(t, func() { r.Respond(context.Background(), "hello") })
}

func TestResponder_PanicIsRecovered(t *testing.T) {
	r := NewResponder(nil, &fakePoster{panic: true}, Options{})
	assert.NotPanics(t, func() { r.Respond(context.Background(), "hello") })
}

func TestResponder_FixedDelay(t *testing.T) {
	sched := &fakeScheduler{}
	r := NewResponder(nil, &fakePoster{}, Options{MinDelay: time.Second, MaxDelay: 500 * time.Millisecond, Scheduler: sched})

	r.Schedule("x")

	require.Len(t, sched.delays, 1)
	assert.Equal(t, time.Second, sched.delays[0])
}

func TestResponder_SubscribeSchedulesUserMessages(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := &fakeScheduler{}
	r := NewResponder(nil, &fakePoster{}, Options{Scheduler: sched})
	require.NoError(t, r.Subscribe(ctx, bus))

	require.NoError(t, pubsub.Publish(ctx, bus, chat.MessageCreated, "user:assistant",
		chat.MessageCreatedEvent{MessageID: "message:0", UserID: domain.Assistant.UserID, Text: "loop?"}))
	require.NoError(t, pubsub.Publish(ctx, bus, chat.MessageCreated, "user:alice",
		chat.MessageCreatedEvent{MessageID: "message:1", UserID: "user:alice", UserName: "Alice", Text: "hello"}))

	assert.Eventually(t, func() bool { return sched.pending() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sched.pending(), "assistant messages must not be answered")
}
