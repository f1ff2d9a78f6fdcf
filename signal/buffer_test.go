package signal_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hushtab/hushcore/signal"
)

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Printf(format string, v ...interface{}) {
	l.t.Logf(format, v...)
}

func (l *testLogger) Println(v ...interface{}) {
	l.t.Log(v...)
}

func domEvent(ts int64, name string, value bool) signal.Event {
	return signal.Event{
		Timestamp: ts,
		Kind:      signal.KindDOM,
		DOM:       &signal.DOMSignal{Name: name, Value: value},
	}
}

func networkEvent(ts int64, url string, cat signal.Category) signal.Event {
	return signal.Event{
		Timestamp: ts,
		Kind:      signal.KindNetwork,
		Network:   &signal.NetworkSignal{URL: url, IsAdRelated: true, Category: cat},
	}
}

// ====================================================================================
// ORDERING - MOST CRITICAL
// ====================================================================================

func TestBufferOrdering(t *testing.T) {
	logger := &testLogger{t: t}

	t.Run("InOrderAppend", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		added, err := b.Add(
			domEvent(1000, "controls-hidden", true),
			domEvent(2000, "controls-hidden", false),
			domEvent(3000, "controls-hidden", true),
		)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if added != 3 {
			t.Errorf("expected 3 added, got %d", added)
		}

		events := b.EventsInRange(0, 5000)
		for i := 1; i < len(events); i++ {
			if events[i].Timestamp < events[i-1].Timestamp {
				t.Errorf("events out of order at %d", i)
			}
		}
	})

	t.Run("LateArrivalReordered", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		b.Add(domEvent(1000, "a", true))
		b.Add(domEvent(3000, "c", true))

		// Late event must land between the two
		if _, err := b.Add(domEvent(2000, "b", true)); err != nil {
			t.Fatalf("late arrival rejected: %v", err)
		}

		events := b.EventsInRange(0, 5000)
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}

		want := []int64{1000, 2000, 3000}
		for i, ts := range want {
			if events[i].Timestamp != ts {
				t.Errorf("events[%d].Timestamp = %d, want %d", i, events[i].Timestamp, ts)
			}
		}
	})

	t.Run("EqualTimestampsKeepArrivalOrder", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		b.Add(domEvent(1000, "first", true))
		b.Add(domEvent(1000, "second", true))
		b.Add(domEvent(1000, "third", true))

		events := b.EventsInRange(1000, 1000)
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}

		names := []string{"first", "second", "third"}
		for i, name := range names {
			if events[i].DOM.Name != name {
				t.Errorf("events[%d] = %s, want %s", i, events[i].DOM.Name, name)
			}
		}
	})
}

// ====================================================================================
// MALFORMED EVENT REJECTION
// ====================================================================================

func TestBufferMalformedEvents(t *testing.T) {
	logger := &testLogger{t: t}

	t.Run("MissingTimestamp", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		_, err := b.Add(signal.Event{
			Kind: signal.KindDOM,
			DOM:  &signal.DOMSignal{Name: "x", Value: true},
		})
		if err == nil {
			t.Fatal("expected MalformedEventError for zero timestamp")
		}

		var merr *signal.MalformedEventError
		if !errors.As(err, &merr) {
			t.Errorf("expected MalformedEventError, got %T", err)
		}

		if b.Count() != 0 {
			t.Errorf("malformed event must not be buffered, count = %d", b.Count())
		}
	})

	t.Run("UnknownKind", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		_, err := b.Add(signal.Event{Timestamp: 1000, Kind: "telemetry"})
		if err == nil {
			t.Fatal("expected MalformedEventError for unknown kind")
		}
	})

	t.Run("MissingPayload", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		_, err := b.Add(signal.Event{Timestamp: 1000, Kind: signal.KindNetwork})
		if err == nil {
			t.Fatal("expected MalformedEventError for missing payload")
		}
	})

	t.Run("StreamContinuesPastBadEvent", func(t *testing.T) {
		b := signal.NewBuffer(logger)

		added, err := b.Add(
			domEvent(1000, "a", true),
			signal.Event{Timestamp: 0, Kind: signal.KindDOM},
			domEvent(2000, "b", true),
		)
		if err == nil {
			t.Error("expected joined error for the bad event")
		}
		if added != 2 {
			t.Errorf("expected 2 added, got %d", added)
		}
		if b.Count() != 2 {
			t.Errorf("expected 2 buffered, got %d", b.Count())
		}
	})
}

// ====================================================================================
// RANGE QUERIES
// ====================================================================================

func TestEventsInRange(t *testing.T) {
	logger := &testLogger{t: t}

	newFilled := func() *signal.Buffer {
		b := signal.NewBuffer(logger)
		for i := int64(1); i <= 10; i++ {
			b.Add(domEvent(i*1000, "flag", true))
			b.Add(networkEvent(i*1000+1, "https://ads.example/slot", signal.CategoryAdDelivery))
		}
		return b
	}

	t.Run("InclusiveBounds", func(t *testing.T) {
		b := newFilled()

		events := b.EventsInRange(2000, 4000)
		if len(events) != 5 {
			t.Errorf("expected 5 events in [2000,4000], got %d", len(events))
		}

		for _, ev := range events {
			if ev.Timestamp < 2000 || ev.Timestamp > 4000 {
				t.Errorf("event at %d outside range", ev.Timestamp)
			}
		}
	})

	t.Run("KindFilter", func(t *testing.T) {
		b := newFilled()

		events := b.EventsInRange(0, 20000, signal.KindNetwork)
		if len(events) != 10 {
			t.Errorf("expected 10 network events, got %d", len(events))
		}
		for _, ev := range events {
			if ev.Kind != signal.KindNetwork {
				t.Errorf("kind filter leaked %s event", ev.Kind)
			}
		}
	})

	t.Run("EmptyRange", func(t *testing.T) {
		b := newFilled()

		if events := b.EventsInRange(50000, 60000); events != nil {
			t.Errorf("expected nil for empty range, got %d events", len(events))
		}
	})

	t.Run("Restartable", func(t *testing.T) {
		b := newFilled()

		first := b.EventsInRange(0, 20000)
		second := b.EventsInRange(0, 20000)

		if len(first) != len(second) {
			t.Fatalf("repeated query changed result: %d vs %d", len(first), len(second))
		}
	})
}

// ====================================================================================
// DRAIN SEMANTICS
// ====================================================================================

func TestDrainUntil(t *testing.T) {
	logger := &testLogger{t: t}

	t.Run("DrainsEverythingUpToTick", func(t *testing.T) {
		b := signal.NewBuffer(logger)
		for i := int64(1); i <= 5; i++ {
			b.Add(domEvent(i*1000, "flag", true))
		}

		drained := b.DrainUntil(3000)
		if len(drained) != 3 {
			t.Errorf("expected 3 drained, got %d", len(drained))
		}

		if b.Count() != 2 {
			t.Errorf("expected 2 remaining, got %d", b.Count())
		}

		if first := b.First(); first == nil || first.Timestamp != 4000 {
			t.Error("remaining buffer should start at 4000")
		}
		if last := b.Last(); last == nil || last.Timestamp != 5000 {
			t.Error("remaining buffer should end at 5000")
		}
	})

	t.Run("LateArrivalBeforeDrainIsIncluded", func(t *testing.T) {
		b := signal.NewBuffer(logger)
		b.Add(domEvent(1000, "a", true))
		b.Add(domEvent(5000, "b", true))
		b.Add(domEvent(2000, "late", true))

		drained := b.DrainUntil(3000)
		if len(drained) != 2 {
			t.Fatalf("expected 2 drained (including late arrival), got %d", len(drained))
		}
		if drained[1].DOM.Name != "late" {
			t.Errorf("late arrival missing from drain, got %s", drained[1].DOM.Name)
		}
	})

	t.Run("EmptyDrain", func(t *testing.T) {
		b := signal.NewBuffer(logger)
		b.Add(domEvent(5000, "a", true))

		if drained := b.DrainUntil(1000); drained != nil {
			t.Errorf("expected nil drain, got %d events", len(drained))
		}
	})
}

// ====================================================================================
// CONCURRENT ACCESS
// ====================================================================================

func TestBufferConcurrency(t *testing.T) {
	b := signal.NewBuffer(&testLogger{t: t})

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ts := int64(g*100+i) + 1
				b.Add(domEvent(ts, fmt.Sprintf("g%d", g), true))
			}
		}(g)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			b.EventsInRange(0, 1000)
			b.Count()
		}
	}()

	wg.Wait()

	events := b.EventsInRange(0, 1000)
	if len(events) != 400 {
		t.Errorf("expected 400 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("ordering violated at %d after concurrent adds", i)
		}
	}
}
