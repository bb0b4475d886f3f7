package whatsapp

import (
	"context"
	"log/slog"
)

// Sender is the delivery contract shared by every channel.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

// Simulated reports success when the wrapped sender cannot reach its
// provider. Provider rejections still fail. Only wired outside production.
type Simulated struct {
	next Sender
}

func NewSimulated(next Sender) *Simulated {
	return &Simulated{next: next}
}

func (s *Simulated) Send(ctx context.Context, destination, message string) error {
	err := s.next.Send(ctx, destination, message)
	if IsUnreachable(err) {
		slog.Warn("delivery provider unreachable, simulating success",
			"destination", destination, "err", err)
		return nil
	}
	return err
}
