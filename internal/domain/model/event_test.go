package model_test

import (
	"testing"
	"time"

	model "github.com/okian/suggest/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseEventType(t *testing.T) {
	convey.Convey("Given wire values for event types", t, func() {
		convey.Convey("When the value is a known type in any case", func() {
			for in, want := range map[string]model.EventType{
				"shown":       model.EventShown,
				"CLICKED":     model.EventClicked,
				" Dismissed ": model.EventDismissed,
			} {
				got, ok := model.ParseEventType(in)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("When the value is unknown", func() {
			_, ok := model.ParseEventType("installed")

			convey.Convey("Then it should be rejected without error", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(model.EventType("installed").Valid(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestNormalizeIdentifier(t *testing.T) {
	convey.Convey("Given suggestion identifiers", t, func() {
		convey.So(model.NormalizeIdentifier("com.example.wifi"), convey.ShouldEqual, "com.example.wifi")
		convey.So(model.NormalizeIdentifier(""), convey.ShouldEqual, model.UnknownIdentifier)
		convey.So(model.NormalizeIdentifier("   "), convey.ShouldEqual, model.UnknownIdentifier)
	})
}

func TestWindowContains(t *testing.T) {
	convey.Convey("Given a history window", t, func() {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)

		convey.Convey("When both bounds are set", func() {
			w := model.Window{From: from, To: to}
			convey.So(w.Contains(from), convey.ShouldBeTrue)
			convey.So(w.Contains(to), convey.ShouldBeTrue)
			convey.So(w.Contains(from.Add(-time.Nanosecond)), convey.ShouldBeFalse)
			convey.So(w.Contains(to.Add(time.Nanosecond)), convey.ShouldBeFalse)
		})

		convey.Convey("When the window is open", func() {
			w := model.Window{}
			convey.So(w.Contains(time.Time{}), convey.ShouldBeTrue)
			convey.So(w.Contains(to.Add(1000*time.Hour)), convey.ShouldBeTrue)
		})
	})
}
