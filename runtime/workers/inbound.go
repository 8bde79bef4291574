package workers

import (
	"context"
	stderrors "errors"
	"log/slog"

	"qleon/domain/chat"
	"qleon/errors"
)

// InboundReceiver stores a message coming from the messaging backend.
type InboundReceiver interface {
	ReceiveMessage(inbound chat.InboundMessage) (chat.Message, error)
}

// InboundWorker feeds the timelines with inbound messages, one at a time,
// in the order the backend delivered them.
// Rejected messages are logged and skipped; they never stop the worker.
type InboundWorker struct {
	log      *slog.Logger
	inbound  <-chan chat.InboundMessage
	receiver InboundReceiver
}

func NewInboundWorker(log *slog.Logger, inbound <-chan chat.InboundMessage, receiver InboundReceiver) InboundWorker {
	return InboundWorker{log: log, inbound: inbound, receiver: receiver}
}

func (w InboundWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping inbound worker")
			return nil
		case msg, ok := <-w.inbound:
			if !ok {
				return nil
			}
			w.handle(msg)
		}
	}
}

func (w InboundWorker) handle(inbound chat.InboundMessage) {
	_, err := w.receiver.ReceiveMessage(inbound)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrConversationNotFound):
		w.log.Debug("Inbound message for a closed conversation", "owner", inbound.Owner, "from", inbound.From)
	default:
		w.log.Warn("Inbound message rejected", "owner", inbound.Owner, "from", inbound.From, "error", err)
	}
}
