package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/internal/domain/lifecycle"
	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recordingStore struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (s *recordingStore) Record(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

type fakeHost struct {
	components map[string]bool
	disabled   []string
	err        error
}

func (h *fakeHost) ComponentExists(_ context.Context, id string) bool { return h.components[id] }

func (h *fakeHost) DisableComponent(_ context.Context, id string) error {
	if h.err != nil {
		return h.err
	}
	h.disabled = append(h.disabled, id)
	return nil
}

type fakeTelemetry struct{ actions []string }

func (t *fakeTelemetry) RecordAction(_ context.Context, action, id string) {
	t.actions = append(t.actions, action+":"+id)
}

type fakePolicy bool

func (p fakePolicy) IsAdvancedRankingEnabled() bool { return bool(p) }

func cands(ids ...string) []model.Candidate {
	out := make([]model.Candidate, len(ids))
	for i, id := range ids {
		out[i] = model.Candidate{Identifier: id}
	}
	return out
}

func TestFilterExclusive(t *testing.T) {
	cases := []struct {
		name string
		in   []model.Candidate
		k    int
		want int
	}{
		{"nil input", nil, 3, 0},
		{"shorter than cap", cands("a", "b"), 3, 2},
		{"exactly cap", cands("a", "b", "c"), 3, 3},
		{"longer than cap", cands("a", "b", "c", "d", "e"), 3, 3},
		{"zero cap", cands("a", "b"), 0, 0},
		{"negative cap", cands("a"), -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lifecycle.FilterExclusive(tc.in, tc.k)
			if len(got) != tc.want {
				t.Fatalf("len = %d, want %d", len(got), tc.want)
			}
			for i := range got {
				if got[i].Identifier != tc.in[i].Identifier {
					t.Errorf("got[%d] = %q, want %q", i, got[i].Identifier, tc.in[i].Identifier)
				}
			}
		})
	}

	t.Run("appending to the result does not clobber the input", func(t *testing.T) {
		in := cands("a", "b", "c", "d")
		got := lifecycle.FilterExclusive(in, 2)
		_ = append(got, model.Candidate{Identifier: "x"})
		if in[2].Identifier != "c" {
			t.Fatalf("input mutated: %q", in[2].Identifier)
		}
	})
}

func TestResolver(t *testing.T) {
	Convey("Given a resolver for host package com.example.settings", t, func() {
		r := lifecycle.NewResolver("com.example.settings")

		Convey("Then third-party suggestions should resolve to their package", func() {
			So(r.Identifier(map[string]string{"package": "com.maps", "class": "com.maps.Setup"}), ShouldEqual, "com.maps")
		})

		Convey("Then host suggestions should resolve to their class", func() {
			So(r.Identifier(map[string]string{"package": "com.example.settings", "class": "com.example.settings.Wifi"}),
				ShouldEqual, "com.example.settings.Wifi")
		})

		Convey("Then incomplete metadata should resolve to the fallback", func() {
			So(r.Identifier(nil), ShouldEqual, model.UnknownIdentifier)
			So(r.Identifier(map[string]string{"class": "Only"}), ShouldEqual, model.UnknownIdentifier)
			So(r.Identifier(map[string]string{"package": "com.example.settings"}), ShouldEqual, model.UnknownIdentifier)
		})

		Convey("Then an explicit identifier should win over metadata", func() {
			c := model.Candidate{Identifier: "explicit", Metadata: map[string]string{"package": "com.maps"}}
			So(r.Resolve(c), ShouldEqual, "explicit")
			c.Identifier = " "
			So(r.Resolve(c), ShouldEqual, "com.maps")
		})
	})
}

func TestDismiss(t *testing.T) {
	Convey("Given a dismisser and a candidate with a host component", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
		store := &recordingStore{}
		host := &fakeHost{components: map[string]bool{"com.maps": true}}
		telemetry := &fakeTelemetry{}
		candidate := model.Candidate{Metadata: map[string]string{"package": "com.maps"}}

		newDismisser := func(enabled bool) *lifecycle.Dismisser {
			return lifecycle.NewDismisser(lifecycle.NewResolver("com.example.settings"),
				store, host, telemetry, fakePolicy(enabled),
				lifecycle.WithDismissClock(clockwork.NewFakeClockAt(now)))
		}

		Convey("When policy is disabled", func() {
			ok, err := newDismisser(false).Dismiss(ctx, candidate)

			Convey("Then only telemetry should be recorded", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(telemetry.actions, ShouldResemble, []string{"dismiss:com.maps"})
				So(store.events, ShouldBeEmpty)
				So(host.disabled, ShouldBeEmpty)
			})
		})

		Convey("When policy is enabled", func() {
			ok, err := newDismisser(true).Dismiss(ctx, candidate)

			Convey("Then a DISMISSED event should be stored and the component disabled", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(telemetry.actions, ShouldResemble, []string{"dismiss:com.maps"})
				So(len(store.events), ShouldEqual, 1)
				So(store.events[0].SuggestionID, ShouldEqual, "com.maps")
				So(store.events[0].Type, ShouldEqual, model.EventDismissed)
				So(store.events[0].TS.Equal(now), ShouldBeTrue)
				So(host.disabled, ShouldResemble, []string{"com.maps"})
			})
		})

		Convey("When the component is unknown to the host", func() {
			host.components = nil
			ok, err := newDismisser(true).Dismiss(ctx, candidate)

			Convey("Then the event should still be stored without a host action", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(len(store.events), ShouldEqual, 1)
				So(host.disabled, ShouldBeEmpty)
			})
		})

		Convey("When the host refuses to disable", func() {
			host.err = errors.New("permission denied")
			ok, err := newDismisser(true).Dismiss(ctx, candidate)

			Convey("Then the failure should surface", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, lifecycle.ErrDisableFailed), ShouldBeTrue)
			})
		})

		Convey("When the store write fails", func() {
			store.err = errors.New("disk full")
			ok, err := newDismisser(true).Dismiss(ctx, candidate)

			Convey("Then the component should still be disabled without an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(telemetry.actions, ShouldResemble, []string{"dismiss:com.maps"})
				So(host.disabled, ShouldResemble, []string{"com.maps"})
			})
		})

		Convey("When both the store write and the host action fail", func() {
			store.err = errors.New("disk full")
			host.err = errors.New("permission denied")
			ok, err := newDismisser(true).Dismiss(ctx, candidate)

			Convey("Then only the host failure should surface", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, lifecycle.ErrDisableFailed), ShouldBeTrue)
				So(err.Error(), ShouldNotContainSubstring, "disk full")
			})
		})
	})
}
