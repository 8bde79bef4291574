//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"qleon/domain/chat"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// SnapshotSink observes a timeline.
// Consume is called once per published snapshot, in publication order,
// from a goroutine dedicated to the subscription.
type SnapshotSink interface {
	Consume(ctx context.Context, snapshot chat.Snapshot) error
}

// SnapshotSinkFunc adapts a plain function to a SnapshotSink.
type SnapshotSinkFunc func(ctx context.Context, snapshot chat.Snapshot) error

func (f SnapshotSinkFunc) Consume(ctx context.Context, snapshot chat.Snapshot) error {
	return f(ctx, snapshot)
}
