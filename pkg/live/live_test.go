package live

import (
	"context"
	"errors"
	"testing"

	"github.com/james-see/mpeparse/pkg/mpe"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func collect(c <-chan mpe.Event) []mpe.Event {
	var events []mpe.Event
	for e := range c {
		events = append(events, e)
	}
	return events
}

func TestDispatcherDecodesInOrder(t *testing.T) {
	d := NewDispatcher()
	c := d.Subscribe()

	err := d.Run(context.Background(), SliceListener(
		gomidi.NoteOn(1, 60, 100),
		gomidi.ProgramChange(1, 3), // dropped
		gomidi.ControlChange(1, 74, 127),
		[]byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}, // sysex, ignored
		gomidi.NoteOn(1, 60, 0),
	))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := collect(c)
	want := []mpe.Kind{mpe.KindNoteOn, mpe.KindSlide, mpe.KindNoteOff}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Kind != k || got[i].Channel != 1 {
			t.Errorf("event %d = %v, want %v on channel 1", i, got[i], k)
		}
	}
}

func TestDispatcherFilters(t *testing.T) {
	d := NewDispatcher()
	ch0 := d.Subscribe(WithChannels(0))
	noBend := d.Subscribe(WithoutKind(mpe.KindPitchBend))

	_ = d.Run(context.Background(), SliceListener(
		gomidi.Pitchbend(0, 100),
		gomidi.NoteOn(0, 60, 100),
		gomidi.NoteOn(3, 60, 100),
	))

	if got := collect(ch0); len(got) != 2 {
		t.Errorf("channel 0 subscriber got %d events, want 2", len(got))
	}
	got := collect(noBend)
	if len(got) != 2 {
		t.Fatalf("no-bend subscriber got %d events, want 2", len(got))
	}
	for _, e := range got {
		if e.Kind == mpe.KindPitchBend {
			t.Errorf("no-bend subscriber got %v", e)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher()
	c := d.Subscribe(WithBuffer(1))

	_ = d.Run(context.Background(), SliceListener(
		gomidi.NoteOn(0, 60, 100),
		gomidi.NoteOn(0, 61, 100),
		gomidi.NoteOn(0, 62, 100),
	))

	got := collect(c)
	if len(got) != 1 || got[0].Note != 60 {
		t.Errorf("got %v, want only the first note", got)
	}
	if d.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", d.Dropped())
	}
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	err := d.Run(context.Background(), func(ctx context.Context, recv func([]byte)) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
	select {
	case <-d.Done():
	default:
		t.Fatal("Done() not closed after Run returned")
	}
	if !errors.Is(d.Err(), boom) {
		t.Errorf("Err() = %v, want %v", d.Err(), boom)
	}
	if _, ok := <-d.Subscribe(); ok {
		t.Error("Subscribe() after close should return a closed channel")
	}
}

func TestListenBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := make(chan struct{})
	d := Listen(ctx, func(ctx context.Context, recv func([]byte)) error {
		<-start
		recv(gomidi.AfterTouch(5, 127))
		<-ctx.Done()
		return nil
	})
	c := d.Subscribe()
	close(start)

	e := <-c
	if e.Kind != mpe.KindPressure || e.Channel != 5 {
		t.Errorf("got %v, want pressure on channel 5", e)
	}
	cancel()
	<-d.Done()
	if d.Err() != nil {
		t.Errorf("Err() = %v, want nil", d.Err())
	}
}

func TestSliceListenerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SliceListener(gomidi.NoteOn(0, 60, 1))(ctx, func([]byte) {
		t.Error("recv called after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
