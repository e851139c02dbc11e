package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/codeclass/engine/internal/engine"
)

// NatsResponder answers execution requests over NATS request/reply.
type NatsResponder struct {
	nc      *nats.Conn
	subject string
	eng     *engine.Engine
	log     *slog.Logger
}

func NewNatsResponder(nc *nats.Conn, subject string, eng *engine.Engine, log *slog.Logger) *NatsResponder {
	return &NatsResponder{nc: nc, subject: subject, eng: eng, log: log}
}

// Listen subscribes on the configured subject and blocks until ctx is
// done. Replies are sent to the message's reply inbox. Engine-side
// teardown never depends on the requester still listening.
func (r *NatsResponder) Listen(ctx context.Context) error {
	sub, err := r.nc.QueueSubscribe(r.subject, "engine", func(msg *nats.Msg) {
		// the request's own watchdog bounds this call
		body, err := handle(context.Background(), r.eng, msg.Data)
		if err != nil {
			r.log.Error("failed to handle NATS request", slog.Any("error", err))
			body, _ = json.Marshal(QueueResponse{ValidationError: "malformed request"})
		}

		env, _ := json.Marshal(Pack(body))
		if err := msg.Respond(env); err != nil {
			r.log.Error("failed to respond on NATS", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.subject, err)
	}

	r.log.Info("listening on NATS", slog.String("subject", r.subject))
	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS subscription: %w", err)
	}
	return ctx.Err()
}
