package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"qleon/contract"
	"qleon/domain/chat"
	"qleon/errors"
	"qleon/mocks"

	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const self = "alice"

func newTestStore(clock clockwork.Clock) *Store {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewStore(log, self, clock, time.Second)
}

// channelSink forwards every snapshot it receives
func channelSink(ch chan<- chat.Snapshot) contract.SnapshotSink {
	return contract.SnapshotSinkFunc(func(ctx context.Context, snapshot chat.Snapshot) error {
		ch <- snapshot
		return nil
	})
}

func receive(t *testing.T, ch <-chan chat.Snapshot, n int) []chat.Snapshot {
	t.Helper()
	var out []chat.Snapshot
	for len(out) < n {
		select {
		case s := <-ch:
			out = append(out, s)
		case <-time.After(2 * time.Second):
			require.FailNow(t, fmt.Sprintf("only %d snapshots received out of %d", len(out), n))
		}
	}
	return out
}

func TestStore_Sent_Then_Received(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	// Given an empty timeline
	req.Zero(store.CurrentSnapshot().Len())

	// When the user sends a message and bob answers
	_, err := store.AppendSent("hi")
	req.NoError(err)
	_, err = store.AppendReceived("hello", "bob")
	req.NoError(err)

	// Then both messages are there, in call order
	messages := store.CurrentSnapshot().Messages()
	req.Len(messages, 2)
	req.Equal(self, messages[0].Sender)
	req.Equal("hi", messages[0].Content)
	req.Equal(chat.Sent, messages[0].Direction)
	req.Equal("bob", messages[1].Sender)
	req.Equal("hello", messages[1].Content)
	req.Equal(chat.Received, messages[1].Direction)
}

func TestStore_Rejects_Blank_Content(t *testing.T) {
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()
	_, err := store.AppendSent("first")
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", content), func(t *testing.T) {
			req := require.New(t)

			_, err := store.AppendSent(content)
			req.ErrorIs(err, errors.ErrInvalidInput)

			_, err = store.AppendReceived(content, "bob")
			req.ErrorIs(err, errors.ErrInvalidInput)

			req.Equal(1, store.CurrentSnapshot().Len())
		})
	}
}

func TestStore_Rejects_Blank_Sender(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	_, err := store.AppendReceived("hello", " ")
	req.ErrorIs(err, errors.ErrInvalidInput)
	req.Zero(store.CurrentSnapshot().Len())
}

func TestStore_Length_Matches_Successful_Calls(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	contents := []string{"a", "", "b", "  ", "c", "d"}
	var expected []string
	for i, content := range contents {
		var err error
		if i%2 == 0 {
			_, err = store.AppendSent(content)
		} else {
			_, err = store.AppendReceived(content, "bob")
		}
		if err == nil {
			expected = append(expected, content)
		}
	}

	messages := store.CurrentSnapshot().Messages()
	req.Len(messages, len(expected))
	for i, m := range messages {
		req.Equal(expected[i], m.Content)
	}
}

func TestStore_Frozen_Clock_Yields_Distinct_Timestamps(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)
	defer store.Close()
	now := clock.Now().UnixMilli()

	// Given the clock never moves
	first, err := store.AppendSent("one")
	req.NoError(err)
	second, err := store.AppendReceived("two", "bob")
	req.NoError(err)
	third, err := store.AppendSent("three")
	req.NoError(err)

	// Then timestamps are still strictly increasing
	req.Equal(now, first.Timestamp)
	req.Equal(now+1, second.Timestamp)
	req.Equal(now+2, third.Timestamp)
	req.False(first.SameItem(second))

	// And they are reported as two distinct insertions
	changes, err := Diff(chat.NewSnapshot(nil), store.CurrentSnapshot())
	req.NoError(err)
	req.Len(changes.Insertions, 3)

	// When the clock moves forward again, its reading is used as is
	clock.Advance(time.Second)
	fourth, err := store.AppendSent("four")
	req.NoError(err)
	req.Equal(clock.Now().UnixMilli(), fourth.Timestamp)
}

func TestStore_CurrentSnapshot_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()
	_, err := store.AppendSent("hi")
	req.NoError(err)

	req.Equal(store.CurrentSnapshot().Messages(), store.CurrentSnapshot().Messages())
}

func TestStore_Old_Snapshot_Is_Not_Affected_By_Later_Appends(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	_, err := store.AppendSent("hi")
	req.NoError(err)
	old := store.CurrentSnapshot()

	for i := 0; i < 100; i++ {
		_, err = store.AppendReceived(fmt.Sprintf("msg %d", i), "bob")
		req.NoError(err)
	}

	req.Equal(1, old.Len())
	req.Equal("hi", old.At(0).Content)
	req.Nil(old.Since(1))
	req.Equal(101, store.CurrentSnapshot().Len())
}

func TestStore_Subscribe_Replays_Current_Snapshot_First(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()
	_, err := store.AppendSent("before")
	req.NoError(err)

	// When an observer subscribes after one message
	ch := make(chan chat.Snapshot, 10)
	store.Subscribe(channelSink(ch))
	_, err = store.AppendReceived("after", "bob")
	req.NoError(err)

	// Then it first gets the current timeline, then the next one
	snapshots := receive(t, ch, 2)
	req.Equal(1, snapshots[0].Len())
	req.Equal(2, snapshots[1].Len())
	req.Equal("after", snapshots[1].At(1).Content)
}

func TestStore_Failing_Observers_Are_Isolated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	// Given an observer returning errors
	failing := mocks.NewMockSnapshotSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("display gone")).
		AnyTimes()
	// And an observer panicking
	panicking := contract.SnapshotSinkFunc(func(ctx context.Context, snapshot chat.Snapshot) error {
		panic("boom")
	})
	// And an observer stuck until released
	release := make(chan struct{})
	defer close(release)
	stuck := contract.SnapshotSinkFunc(func(ctx context.Context, snapshot chat.Snapshot) error {
		<-release
		return nil
	})
	ch := make(chan chat.Snapshot, 10)

	store.Subscribe(failing)
	store.Subscribe(panicking)
	store.Subscribe(stuck)
	store.Subscribe(channelSink(ch))

	// When messages are appended
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 3; i++ {
			if _, err := store.AppendSent(fmt.Sprintf("msg %d", i)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// Then appends are not blocked
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.FailNow("append blocked by an observer")
	}

	// And the healthy observer gets every snapshot
	snapshots := receive(t, ch, 4)
	for i, s := range snapshots {
		req.Equal(i, s.Len())
	}
}

func TestStore_Slow_Observer_Gets_A_Bounded_Context(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := NewStore(log, self, clockwork.NewFakeClock(), 20*time.Millisecond)
	defer store.Close()

	errs := make(chan error, 1)
	store.Subscribe(contract.SnapshotSinkFunc(func(ctx context.Context, snapshot chat.Snapshot) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}))

	select {
	case err := <-errs:
		req.ErrorIs(err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		req.FailNow("sink timeout not applied")
	}
}

func TestStore_Unsubscribe_Stops_Deliveries(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())

	ch := make(chan chat.Snapshot, 10)
	sub := store.Subscribe(channelSink(ch))
	receive(t, ch, 1)

	// When unsubscribing twice
	store.Unsubscribe(sub)
	store.Unsubscribe(sub)

	// Then nothing is delivered anymore
	_, err := store.AppendSent("hi")
	req.NoError(err)
	select {
	case <-ch:
		req.FailNow("snapshot delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}

	// And unsubscribing after close is still fine
	store.Close()
	store.Unsubscribe(sub)
	store.Close()
}

func TestStore_Subscribe_After_Close_Receives_Nothing(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	store.Close()

	ch := make(chan chat.Snapshot, 10)
	sub := store.Subscribe(channelSink(ch))
	_, err := store.AppendSent("hi")
	req.NoError(err)

	select {
	case <-ch:
		req.FailNow("snapshot delivered on a closed timeline")
	case <-time.After(50 * time.Millisecond):
	}
	store.Unsubscribe(sub)
	req.Equal(1, store.CurrentSnapshot().Len())
}

func TestStore_Concurrent_Appends_Are_Totally_Ordered(t *testing.T) {
	req := require.New(t)
	store := newTestStore(clockwork.NewFakeClock())
	defer store.Close()

	const writers, perWriter = 10, 100
	ch := make(chan chat.Snapshot, writers*perWriter+1)
	store.Subscribe(channelSink(ch))

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				var err error
				if w%2 == 0 {
					_, err = store.AppendSent(fmt.Sprintf("%d-%d", w, i))
				} else {
					_, err = store.AppendReceived(fmt.Sprintf("%d-%d", w, i), "bob")
				}
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then every published snapshot extends the previous one by exactly one message
	snapshots := receive(t, ch, writers*perWriter+1)
	for i := 1; i < len(snapshots); i++ {
		changes, err := Diff(snapshots[i-1], snapshots[i])
		req.NoError(err)
		req.Len(changes.Insertions, 1)
		req.Equal(i-1, changes.Insertions[0].Index)
	}

	// And timestamps are strictly increasing
	messages := store.CurrentSnapshot().Messages()
	req.Len(messages, writers*perWriter)
	for i := 1; i < len(messages); i++ {
		req.Less(messages[i-1].Timestamp, messages[i].Timestamp)
	}
}
