//go:build !linux && !darwin && !windows

package clipboard

import "context"

// System is the stub accessor for platforms without clipboard support.
type System struct{}

// NewSystem creates a clipboard accessor stub.
func NewSystem() *System {
	return &System{}
}

func (s *System) Read(ctx context.Context) (Payload, error) {
	return Payload{}, ErrUnavailable
}

func (s *System) Write(ctx context.Context, p Payload) error {
	return ErrUnavailable
}
