package adapters

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"royalties/internal/amqp"
	"royalties/internal/notify"
)

// UpdateBroker is the AMQP side of the bridge.
type UpdateBroker interface {
	PublishUpdate(ctx context.Context, msg *amqp.UpdateMessage) error
	ConsumeUpdates(ctx context.Context, handler func(*amqp.UpdateMessage) error) error
}

// UpdateBridge adapts an AMQP broker to the local notify hub so updates made
// on one instance reach the browsers and caches of every instance.
type UpdateBridge struct {
	hub    *notify.Hub
	broker UpdateBroker
}

func NewUpdateBridge(hub *notify.Hub, broker UpdateBroker) *UpdateBridge {
	return &UpdateBridge{hub: hub, broker: broker}
}

// Run forwards local updates to the broker and replays remote ones into the
// hub until ctx is cancelled. Updates carrying this instance's origin are
// never replayed, so nothing loops.
func (b *UpdateBridge) Run(ctx context.Context) error {
	updates, unsubscribe := b.hub.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.forward(ctx, updates)
		return nil
	})
	g.Go(func() error {
		return b.broker.ConsumeUpdates(ctx, b.replay)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *UpdateBridge) forward(ctx context.Context, updates <-chan notify.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Origin != b.hub.Origin() {
				continue
			}
			if err := b.broker.PublishUpdate(ctx, amqp.NewUpdateMessage(u)); err != nil {
				slog.WarnContext(ctx, "Failed to forward update to AMQP",
					"type", u.Type,
					"id", u.ID,
					"error", err)
			}
		}
	}
}

func (b *UpdateBridge) replay(msg *amqp.UpdateMessage) error {
	if msg.Origin == b.hub.Origin() {
		return nil
	}
	if msg.Type == "" {
		return errors.New("update message without type")
	}
	b.hub.Publish(msg.Update())
	return nil
}
