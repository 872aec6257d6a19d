package notify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeBus struct {
	ch chan []byte
}

func newFakeBus(bodies ...string) *fakeBus {
	b := &fakeBus{ch: make(chan []byte, len(bodies)+1)}
	for _, body := range bodies {
		b.ch <- []byte(body)
	}
	return b
}

func (b *fakeBus) Messages() <-chan []byte { return b.ch }
func (b *fakeBus) Close() error {
	close(b.ch)
	return nil
}

const hydroPath = "/hydrometric/csv/ON/hourly/ON_02KF005_hourly_hydrometric.csv"

func announce(path string) string {
	return "20240101120000.123 https://dd.weather.gc.ca " + path
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name   string
		bodies []string
		want   int
	}{
		{
			name:   "body is exactly the watched path",
			bodies: []string{hydroPath},
			want:   1,
		},
		{
			name:   "path embedded in announcement",
			bodies: []string{announce(hydroPath)},
			want:   1,
		},
		{
			name:   "unrelated path",
			bodies: []string{announce("/hydrometric/csv/ON/hourly/ON_02HA003_hourly_hydrometric.csv")},
			want:   0,
		},
		{
			name:   "several matches in one window",
			bodies: []string{announce(hydroPath), hydroPath, announce(hydroPath)},
			want:   1,
		},
		{
			name: "empty window",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fetches int32
			watches := []Watch{{
				Path: hydroPath,
				Refresh: func(ctx context.Context) error {
					atomic.AddInt32(&fetches, 1)
					return nil
				},
			}}

			n := New(newFakeBus(tt.bodies...), watches, 20*time.Millisecond, zap.NewNop().Sugar())
			got, err := n.Poll(context.Background())
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Poll() = %d, want %d", got, tt.want)
			}
			if f := atomic.LoadInt32(&fetches); int(f) != tt.want {
				t.Errorf("refresh ran %d times, want %d", f, tt.want)
			}
			if s := n.State(); s != Idle {
				t.Errorf("State() after poll = %v, want idle", s)
			}
		})
	}
}

func TestPollIndependentWatches(t *testing.T) {
	obs := "/air_quality/aqhi/ont/observation/realtime/xml/AQ_OBS_FEVNT_CURRENT.xml"
	fcst := "/air_quality/aqhi/ont/forecast/realtime/xml/AQ_FCST_FEVNT_CURRENT.xml"

	var obsCount, fcstCount int32
	watches := []Watch{
		{Path: obs, Refresh: func(context.Context) error { atomic.AddInt32(&obsCount, 1); return nil }},
		{Path: fcst, Refresh: func(context.Context) error { atomic.AddInt32(&fcstCount, 1); return nil }},
	}

	n := New(newFakeBus(announce(fcst)), watches, 20*time.Millisecond, zap.NewNop().Sugar())
	if _, err := n.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if obsCount != 0 || fcstCount != 1 {
		t.Errorf("refreshes obs=%d fcst=%d, want 0 and 1", obsCount, fcstCount)
	}
}

func TestPollRefreshError(t *testing.T) {
	boom := errors.New("boom")
	watches := []Watch{{
		Path:    hydroPath,
		Refresh: func(context.Context) error { return boom },
	}}

	n := New(newFakeBus(hydroPath), watches, 20*time.Millisecond, zap.NewNop().Sugar())
	got, err := n.Poll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Poll() error = %v, want %v", err, boom)
	}
	if got != 1 {
		t.Errorf("Poll() = %d, want 1", got)
	}
	if !strings.Contains(err.Error(), hydroPath) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestPollBusClosed(t *testing.T) {
	var fetches int32
	watches := []Watch{{
		Path:    hydroPath,
		Refresh: func(context.Context) error { atomic.AddInt32(&fetches, 1); return nil },
	}}

	bus := newFakeBus(hydroPath)
	bus.Close()

	n := New(bus, watches, time.Minute, zap.NewNop().Sugar())
	got, err := n.Poll(context.Background())
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("Poll() error = %v, want ErrBusClosed", err)
	}
	if got != 1 || fetches != 1 {
		t.Errorf("Poll() = %d with %d fetches, want the buffered match refreshed once", got, fetches)
	}
}

func TestPollCancelled(t *testing.T) {
	var fetches int32
	watches := []Watch{{
		Path:    hydroPath,
		Refresh: func(context.Context) error { atomic.AddInt32(&fetches, 1); return nil },
	}}

	ctx, cancel := context.WithCancel(context.Background())
	n := New(newFakeBus(), watches, time.Minute, zap.NewNop().Sugar())

	done := make(chan error, 1)
	go func() {
		_, err := n.Poll(ctx)
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for n.State() != Listening && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Poll() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Poll() did not return after cancellation")
	}
	if fetches != 0 {
		t.Errorf("refresh ran %d times after cancellation", fetches)
	}
	if s := n.State(); s != Idle {
		t.Errorf("State() = %v, want idle", s)
	}
}

func TestNewTopic(t *testing.T) {
	a := NewTopic("", "v02.post.air_quality.aqhi.#")
	b := NewTopic("", "v02.post.air_quality.aqhi.#")

	if a.Exchange != DefaultExchange {
		t.Errorf("Exchange = %q, want %q", a.Exchange, DefaultExchange)
	}
	if !strings.HasPrefix(a.Queue, "q_anonymous_env-canada-go_") {
		t.Errorf("Queue = %q, missing anonymous prefix", a.Queue)
	}
	if a.Queue == b.Queue {
		t.Error("two topics share a queue name")
	}
}
