package host

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry with two components", t, func() {
		ctx := context.Background()
		r := NewRegistry("com.maps", "com.mail", "")

		Convey("Then both should exist and be enabled", func() {
			So(r.ComponentExists(ctx, "com.maps"), ShouldBeTrue)
			So(r.Enabled("com.mail"), ShouldBeTrue)
			So(r.ComponentExists(ctx, ""), ShouldBeFalse)
		})

		Convey("When one is disabled", func() {
			So(r.DisableComponent(ctx, "com.maps"), ShouldBeNil)

			Convey("Then it should still exist but be disabled", func() {
				So(r.ComponentExists(ctx, "com.maps"), ShouldBeTrue)
				So(r.Enabled("com.maps"), ShouldBeFalse)
				So(r.Disabled(), ShouldResemble, []string{"com.maps"})
			})

			Convey("And re-registering should not re-enable it", func() {
				r.Register("com.maps")
				So(r.Enabled("com.maps"), ShouldBeFalse)
			})
		})

		Convey("When disabling an unknown component", func() {
			err := r.DisableComponent(ctx, "com.unknown")
			So(errors.Is(err, ErrUnknownComponent), ShouldBeTrue)
		})
	})
}

func TestTelemetryAndPolicy(t *testing.T) {
	Convey("Given the metrics telemetry sink", t, func() {
		NewMetricsTelemetry().RecordAction(context.Background(), "dismiss", "com.maps")

		Convey("Then the action counter should be exported", func() {
			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "suggest_ranking_suggestion_actions_total")
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThanOrEqualTo, 1)
		})
	})

	Convey("Given a static policy", t, func() {
		So(StaticPolicy{AdvancedRanking: true}.IsAdvancedRankingEnabled(), ShouldBeTrue)
		So(StaticPolicy{}.IsAdvancedRankingEnabled(), ShouldBeFalse)
	})
}
