package features_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/suggest/internal/domain/features"
	"github.com/okian/suggest/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHistory struct {
	events  map[string][]model.Event
	err     error
	windows []model.Window
}

func (h *fakeHistory) Query(_ context.Context, id string, w model.Window) ([]model.Event, error) {
	h.windows = append(h.windows, w)
	if h.err != nil {
		return nil, h.err
	}
	var out []model.Event
	for _, e := range h.events[id] {
		if w.Contains(e.TS) {
			out = append(out, e)
		}
	}
	return out, nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ev(id string, typ model.EventType, ts time.Time) model.Event {
	return model.Event{SuggestionID: id, Type: typ, TS: ts}
}

func assertFinite(v features.Vector) {
	for _, x := range v {
		So(math.IsNaN(x) || math.IsInf(x, 0), ShouldBeFalse)
	}
}

func TestFeaturize(t *testing.T) {
	Convey("Given a featurizer over a fixed history", t, func() {
		h := &fakeHistory{events: map[string][]model.Event{
			"A": {
				ev("A", model.EventShown, t0),
				ev("A", model.EventShown, t0.Add(time.Hour)),
				ev("A", model.EventClicked, t0.Add(2*time.Hour)),
				ev("A", model.EventDismissed, t0.Add(3*time.Hour)),
			},
			"clicks-only": {
				ev("clicks-only", model.EventClicked, t0),
			},
			"many-clicks": {
				ev("many-clicks", model.EventShown, t0),
				ev("many-clicks", model.EventClicked, t0),
				ev("many-clicks", model.EventClicked, t0),
				ev("many-clicks", model.EventClicked, t0),
			},
		}}
		f := features.New(h, features.WithHalfLife(24*time.Hour))
		asOf := t0.Add(26 * time.Hour)

		Convey("When featurizing a suggestion with history", func() {
			v := f.Featurize(context.Background(), "A", asOf)

			Convey("Then the tallies and rates should be derived from events", func() {
				So(v.Get(features.ShownCount), ShouldEqual, 2)
				So(v.Get(features.ClickCount), ShouldEqual, 1)
				So(v.Get(features.DismissCount), ShouldEqual, 1)
				So(v.Get(features.ClickThroughRate), ShouldEqual, 0.5)
				So(v.Get(features.RecencyScore), ShouldAlmostEqual, 0.5, 1e-12)
				So(v.Get(features.DaysSinceLastClick), ShouldAlmostEqual, 1.0, 1e-12)
				assertFinite(v)
			})
		})

		Convey("When the identifier is unknown", func() {
			v := f.Featurize(context.Background(), "missing", asOf)

			Convey("Then the default vector should be returned", func() {
				So(v, ShouldResemble, features.Default())
				So(v.Get(features.RecencyScore), ShouldEqual, 0)
				So(v.Get(features.DaysSinceLastClick), ShouldEqual, features.MaxDaysSinceClick)
			})
		})

		Convey("When there are clicks but no impressions", func() {
			v := f.Featurize(context.Background(), "clicks-only", asOf)

			Convey("Then the click-through rate should be zero", func() {
				So(v.Get(features.ShownCount), ShouldEqual, 0)
				So(v.Get(features.ClickThroughRate), ShouldEqual, 0)
			})
		})

		Convey("When clicks outnumber impressions", func() {
			v := f.Featurize(context.Background(), "many-clicks", asOf)

			Convey("Then the click-through rate should be clamped to one", func() {
				So(v.Get(features.ClickThroughRate), ShouldEqual, 1)
			})
		})

		Convey("When featurizing the same history twice", func() {
			a := f.Featurize(context.Background(), "A", asOf)
			b := f.Featurize(context.Background(), "A", asOf)

			Convey("Then the vectors should be bit-identical", func() {
				for i := range a {
					So(math.Float64bits(a[i]), ShouldEqual, math.Float64bits(b[i]))
				}
			})
		})

		Convey("When asOf is before some events", func() {
			v := f.Featurize(context.Background(), "A", t0.Add(90*time.Minute))

			Convey("Then later events should be ignored", func() {
				So(v.Get(features.ShownCount), ShouldEqual, 2)
				So(v.Get(features.ClickCount), ShouldEqual, 0)
				So(v.Get(features.DismissCount), ShouldEqual, 0)
			})
		})
	})
}

func TestFeaturizeHistoryWindow(t *testing.T) {
	Convey("Given a featurizer with a history window", t, func() {
		h := &fakeHistory{events: map[string][]model.Event{
			"A": {
				ev("A", model.EventShown, t0),
				ev("A", model.EventShown, t0.Add(10*24*time.Hour)),
			},
		}}
		f := features.New(h, features.WithHistoryWindow(7*24*time.Hour))
		asOf := t0.Add(11 * 24 * time.Hour)

		Convey("When featurizing", func() {
			v := f.Featurize(context.Background(), "A", asOf)

			Convey("Then only events inside the window should count", func() {
				So(v.Get(features.ShownCount), ShouldEqual, 1)
				So(h.windows[0].From.Equal(asOf.Add(-7*24*time.Hour)), ShouldBeTrue)
				So(h.windows[0].To.Equal(asOf), ShouldBeTrue)
			})
		})
	})
}

func TestFeaturizeStorageFailure(t *testing.T) {
	Convey("Given a history reader that fails", t, func() {
		boom := errors.New("disk gone")
		f := features.New(&fakeHistory{err: boom})

		Convey("When featurizing", func() {
			v := f.Featurize(context.Background(), "A", t0)

			Convey("Then the default vector should be substituted", func() {
				So(v, ShouldResemble, features.Default())
			})
		})

		Convey("When featurizing with error reporting", func() {
			v, err := f.FeaturizeErr(context.Background(), "A", t0)

			Convey("Then the error should be wrapped and the vector defaulted", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(v, ShouldResemble, features.Default())
			})
		})
	})
}

func TestComputeBounds(t *testing.T) {
	Convey("Given arbitrary histories", t, func() {
		types := []model.EventType{model.EventShown, model.EventClicked, model.EventDismissed, "installed"}
		for n := 0; n < 40; n++ {
			var events []model.Event
			for i := 0; i < n; i++ {
				events = append(events, ev("X", types[(i*7+n)%len(types)], t0.Add(time.Duration(i)*time.Hour)))
			}
			v := features.Compute(events, t0.Add(48*time.Hour), 0)

			ctr := v.Get(features.ClickThroughRate)
			So(ctr, ShouldBeGreaterThanOrEqualTo, 0)
			So(ctr, ShouldBeLessThanOrEqualTo, 1)
			if v.Get(features.ShownCount) == 0 {
				So(ctr, ShouldEqual, 0)
			}
			So(v.Get(features.RecencyScore), ShouldBeBetweenOrEqual, 0, 1)
			So(v.Get(features.DaysSinceLastClick), ShouldBeBetweenOrEqual, 0, features.MaxDaysSinceClick)
			assertFinite(v)
		}
	})
}

func TestFeatureNames(t *testing.T) {
	Convey("Given the feature catalogue", t, func() {
		names := features.Names()
		So(len(names), ShouldEqual, int(features.NumFeatures))

		for i, name := range names {
			f, ok := features.ByName(name)
			So(ok, ShouldBeTrue)
			So(int(f), ShouldEqual, i)
			So(f.String(), ShouldEqual, name)
		}

		_, ok := features.ByName("install_count")
		So(ok, ShouldBeFalse)
		So(features.Feature(99).String(), ShouldEqual, "unknown")
		So(features.Default().Map()["days_since_last_click"], ShouldEqual, features.MaxDaysSinceClick)
	})
}
