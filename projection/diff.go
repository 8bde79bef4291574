package projection

import (
	"context"
	"fmt"
	"sync"

	"qleon/domain/chat"
	"qleon/errors"

	"github.com/samber/lo"
)

// Diff returns the edit script turning prev into next.
//
// Timelines only grow, so next must start with prev: the check is done on the
// last message of prev only, and the cost is proportional to the number of
// messages appended in between, not to the length of the timeline.
func Diff(prev, next chat.Snapshot) (chat.Changes, error) {
	n := prev.Len()
	if next.Len() < n {
		return chat.Changes{}, fmt.Errorf("%w: %d messages before, %d after",
			errors.ErrIncomparableSnapshots, n, next.Len())
	}
	if last, ok := prev.Last(); ok {
		boundary := next.At(n - 1)
		if !boundary.SameItem(last) || !boundary.SameContent(last) {
			return chat.Changes{}, fmt.Errorf("%w: message %d differs",
				errors.ErrIncomparableSnapshots, n-1)
		}
	}
	insertions := lo.Map(next.Since(n), func(m chat.Message, i int) chat.Insertion {
		return chat.Insertion{Index: n + i, Message: m}
	})
	return chat.Changes{Insertions: insertions}, nil
}

// DiffSink turns a stream of snapshots into a stream of changes.
// The first snapshot is diffed against an empty timeline.
type DiffSink struct {
	mu        sync.Mutex
	previous  chat.Snapshot
	onChanges func(ctx context.Context, changes chat.Changes) error
}

func NewDiffSink(onChanges func(ctx context.Context, changes chat.Changes) error) *DiffSink {
	return &DiffSink{onChanges: onChanges}
}

func (d *DiffSink) Consume(ctx context.Context, snapshot chat.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	changes, err := Diff(d.previous, snapshot)
	if err != nil {
		return err
	}
	d.previous = snapshot
	if changes.Empty() {
		return nil
	}
	return d.onChanges(ctx, changes)
}
