// Package live decodes MPE events from MIDI input ports.
package live

import (
	"context"
	"sync"

	"github.com/james-see/mpeparse/pkg/mpe"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Listener blocks until ctx is done, calling recv with each raw MIDI
// message in arrival order.
type Listener func(ctx context.Context, recv func(raw []byte)) error

// ListPorts returns the names of the available MIDI input ports.
func ListPorts() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// PortListener returns a Listener reading from the first input port
// whose name contains name.
func PortListener(name string) Listener {
	return func(ctx context.Context, recv func([]byte)) error {
		in, err := gomidi.FindInPort(name)
		if err != nil {
			return errors.Wrapf(err, "find input port %q", name)
		}
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			recv(msg)
		})
		if err != nil {
			return errors.Wrapf(err, "listen to %s", in)
		}
		logrus.Debugf("listening on %s", in)
		<-ctx.Done()
		stop()
		logrus.Debugf("stopped listening on %s", in)
		return nil
	}
}

// SliceListener returns a Listener that delivers msgs and then returns.
func SliceListener(msgs ...[]byte) Listener {
	return func(ctx context.Context, recv func([]byte)) error {
		for _, m := range msgs {
			if err := ctx.Err(); err != nil {
				return err
			}
			recv(m)
		}
		return nil
	}
}

type sub struct {
	f filter
	c chan mpe.Event
}

// Dispatcher decodes raw MIDI messages and routes the resulting events to
// subscribers.
type Dispatcher struct {
	mu     sync.Mutex
	subs   []sub
	closed bool
	done   chan struct{}
	err    error

	// Dropped counts events not delivered because a subscriber was full.
	dropped int
}

// NewDispatcher returns a Dispatcher with no subscribers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{done: make(chan struct{})}
}

// Listen starts l in the background and returns a Dispatcher fed by it.
// Subscribe before events are expected; earlier events are not replayed.
func Listen(ctx context.Context, l Listener) *Dispatcher {
	d := NewDispatcher()
	go func() {
		if err := d.Run(ctx, l); err != nil {
			logrus.WithError(err).Error("midi listener stopped")
		}
	}()
	return d
}

// Run feeds the dispatcher from l until l returns. All subscription
// channels are closed on return.
func (d *Dispatcher) Run(ctx context.Context, l Listener) error {
	parser := mpe.NewParser(mpe.SinkFunc(d.dispatch))
	err := l(ctx, func(raw []byte) {
		m, ok := mpe.FromBytes(raw)
		if !ok {
			logrus.Debugf("ignoring %d byte message", len(raw))
			return
		}
		if !parser.Parse(m) {
			logrus.Debugf("no expression event for %v", m)
		}
	})
	d.close(err)
	return err
}

// Done is closed once the listener has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Err returns the error the listener stopped with, if any.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Dropped returns the number of events discarded for full subscribers.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) dispatch(e mpe.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		if !s.f.match(e) {
			continue
		}
		select {
		case s.c <- e:
		default:
			d.dropped++
			logrus.Warnf("subscriber full, dropping %v", e)
		}
	}
}

func (d *Dispatcher) close(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, s := range d.subs {
		close(s.c)
	}
	d.subs = nil
	d.closed = true
	d.err = err
	close(d.done)
}

// DefaultBuffer is the capacity of a subscription channel.
const DefaultBuffer = 256

// Subscribe returns a channel receiving the events that pass all opts.
// The channel is closed when the listener returns.
func (d *Dispatcher) Subscribe(opts ...SubscriptionFilter) <-chan mpe.Event {
	f := defaultFilter()
	for _, o := range opts {
		o(&f)
	}

	c := make(chan mpe.Event, f.buffer)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(c)
		return c
	}
	d.subs = append(d.subs, sub{f: f, c: c})
	return c
}

type filter struct {
	channels uint16 // bit n set: accept channel n
	kinds    [mpe.NumKinds]bool
	buffer   int
}

func defaultFilter() filter {
	f := filter{channels: 0xFFFF, buffer: DefaultBuffer}
	for i := range f.kinds {
		f.kinds[i] = true
	}
	return f
}

func (f *filter) match(e mpe.Event) bool {
	if f.channels&(1<<e.Channel) == 0 {
		return false
	}
	return int(e.Kind) < len(f.kinds) && f.kinds[e.Kind]
}

// SubscriptionFilter configures a subscription.
type SubscriptionFilter func(f *filter)

// WithChannels limits a subscription to the given channels (0-15).
func WithChannels(channels ...uint8) SubscriptionFilter {
	return func(f *filter) {
		f.channels = 0
		for _, c := range channels {
			f.channels |= 1 << (c & 0x0F)
		}
	}
}

// WithoutKind excludes events of kind k.
func WithoutKind(k mpe.Kind) SubscriptionFilter {
	return func(f *filter) {
		if int(k) < len(f.kinds) {
			f.kinds[k] = false
		}
	}
}

// WithBuffer sets the subscription channel capacity.
func WithBuffer(n int) SubscriptionFilter {
	return func(f *filter) { f.buffer = n }
}
