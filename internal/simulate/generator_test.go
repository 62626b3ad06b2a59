package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/suggest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestGeneratePlan(t *testing.T) {
	Convey("Given a small simulation config", t, func() {
		cfg := DefaultConfig()
		cfg.Suggestions = 3
		cfg.Shown = 4
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		stats := &Stats{}

		plan := generatePlan(context.Background(), cfg, now, stats)

		Convey("Then impressions and decreasing clicks should be generated", func() {
			// 3*4 shown plus 3+2+1 clicked.
			So(plan.Events, ShouldHaveLength, 18)
			So(stats.EventsGenerated, ShouldEqual, 18)

			clicks := map[string]int{}
			ids := map[string]bool{}
			for _, e := range plan.Events {
				So(ids[e.EventID], ShouldBeFalse)
				ids[e.EventID] = true
				So(e.TS, ShouldEqual, "2024-05-01T11:00:00Z")
				if e.Type == "clicked" {
					clicks[e.SuggestionID]++
				}
			}
			So(clicks["sim.suggestion.000"], ShouldEqual, 3)
			So(clicks["sim.suggestion.002"], ShouldEqual, 1)
		})

		Convey("Then the expected order should be best first", func() {
			So(plan.Expected, ShouldResemble, []string{"sim.suggestion.000", "sim.suggestion.001", "sim.suggestion.002"})
		})
	})
}

func TestVerifyOrder(t *testing.T) {
	expected := []string{"a", "b", "c"}
	cases := []struct {
		name string
		got  []string
		ok   bool
	}{
		{"exact", []string{"a", "b", "c"}, true},
		{"swapped", []string{"b", "a", "c"}, false},
		{"short", []string{"a", "b"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := verifyOrder(expected, tc.got)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrOrderMismatch) {
				t.Fatalf("want ErrOrderMismatch, got %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	Convey("Given simulation configs", t, func() {
		So(DefaultConfig().Validate(), ShouldBeNil)

		for _, mutate := range []func(*Config){
			func(c *Config) { c.BaseURL = "" },
			func(c *Config) { c.Suggestions = 1 },
			func(c *Config) { c.Shown = c.Suggestions - 1 },
			func(c *Config) { c.Workers = 0 },
			func(c *Config) { c.SettleTimeout = 0 },
		} {
			cfg := DefaultConfig()
			mutate(&cfg)
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		}
	})
}
