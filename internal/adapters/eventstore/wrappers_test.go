package eventstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// slowStore blocks every call until the context ends.
type slowStore struct{ *MemoryStore }

func (s *slowStore) Query(ctx context.Context, _ string, _ model.Window) ([]model.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) Record(ctx context.Context, _ model.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTimed(t *testing.T) {
	Convey("Given a backend slower than the timeout", t, func() {
		s := NewTimed(&slowStore{MemoryStore: NewMemoryStore()}, 10*time.Millisecond)

		Convey("When querying", func() {
			_, err := s.Query(context.Background(), "A", model.Window{})

			Convey("Then the call should fail as storage unavailable", func() {
				So(errors.Is(err, ErrStorageUnavailable), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When recording", func() {
			err := s.Record(context.Background(), ev("a", "A", model.EventShown, base))
			So(errors.Is(err, ErrStorageUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a caller that cancels", t, func() {
		s := NewTimed(&slowStore{MemoryStore: NewMemoryStore()}, time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then cancellation should pass through unchanged", func() {
			_, err := s.Query(ctx, "A", model.Window{})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, ErrStorageUnavailable), ShouldBeFalse)
		})
	})
}

func TestInstrumentedPassThrough(t *testing.T) {
	Convey("Given an instrumented memory store", t, func() {
		ctx := context.Background()
		s := NewInstrumented(NewMemoryStore(), DriverMemory)

		Convey("When recording and querying", func() {
			So(s.Record(ctx, ev("a", "A", model.EventShown, base)), ShouldBeNil)
			got, err := s.Query(ctx, "A", model.Window{})

			Convey("Then results should come from the wrapped store", func() {
				So(err, ShouldBeNil)
				So(ids(got), ShouldResemble, []string{"a"})
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestRetention(t *testing.T) {
	Convey("Given a retention loop over a store with old and new events", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		clock := clockwork.NewFakeClockAt(base)
		s := NewMemoryStore()
		So(s.Record(ctx, ev("old", "A", model.EventShown, base.Add(-48*time.Hour))), ShouldBeNil)
		So(s.Record(ctx, ev("new", "A", model.EventShown, base.Add(-time.Hour))), ShouldBeNil)

		r := NewRetention(s,
			WithRetention(24*time.Hour),
			WithPruneInterval(time.Minute),
			WithRetentionClock(clock),
		)

		Convey("When pruning once", func() {
			n := r.PruneOnce(ctx)

			Convey("Then only events past retention should be removed", func() {
				So(n, ShouldEqual, 1)
				got, _ := s.Query(ctx, "A", model.Window{})
				So(ids(got), ShouldResemble, []string{"new"})
			})
		})

		Convey("When the loop ticks", func() {
			r.Start(ctx)
			defer r.Stop()
			So(clock.BlockUntilContext(ctx, 1), ShouldBeNil)
			clock.Advance(time.Minute)

			Convey("Then the store should eventually be pruned", func() {
				deadline := time.Now().Add(2 * time.Second)
				for {
					n, _ := s.Count(ctx)
					if n == 1 || time.Now().After(deadline) {
						So(n, ShouldEqual, 1)
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store configurations", t, func() {
		ctx := context.Background()

		Convey("When the driver is unknown", func() {
			_, err := Open(ctx, Config{Driver: "cassandra"})
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})

		Convey("When the driver is memory", func() {
			s, err := Open(ctx, Config{Driver: DriverMemory, Timeout: time.Second})
			So(err, ShouldBeNil)
			defer s.Close()
			So(s.Record(ctx, ev("a", "A", model.EventShown, base)), ShouldBeNil)
			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("When the driver is sqlite", func() {
			s, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: t.TempDir() + "/events.db"})
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}
