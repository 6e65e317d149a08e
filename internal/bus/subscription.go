package bus

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Subscription is a live stream of one signal member from the endpoint.
type Subscription struct {
	member string
	name   string
	path   dbus.ObjectPath
	conn   *dbus.Conn
	ch     chan *dbus.Signal
	opts   []dbus.MatchOption

	closeOnce sync.Once
}

// Member returns the subscribed signal member.
func (s *Subscription) Member() string {
	return s.member
}

// Next blocks until a matching signal arrives and returns its body. ok is
// false once the stream terminates or ctx ends.
func (s *Subscription) Next(ctx context.Context) ([]any, bool) {
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case sig, open := <-s.ch:
			if !open {
				return nil, false
			}
			if s.matches(sig) {
				return sig.Body, true
			}
		}
	}
}

// The sender on a delivered signal is the daemon's unique name, so only the
// path and qualified member are compared here.
func (s *Subscription) matches(sig *dbus.Signal) bool {
	if sig == nil {
		return false
	}
	return sig.Path == s.path && sig.Name == s.name
}

// Close removes the match rule and stops delivery to this stream.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.conn.RemoveSignal(s.ch)
		if s.conn.Connected() {
			err = s.conn.RemoveMatchSignal(s.opts...)
		}
	})
	return err
}
