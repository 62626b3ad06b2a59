package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/suggest/internal/app"
	"github.com/okian/suggest/internal/config"
	"github.com/okian/suggest/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestConfigFromEnvironment(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("SUGGEST_ADDR", ":8080")
		t.Setenv("SUGGEST_QUEUE_SIZE", "1000")
		t.Setenv("SUGGEST_WORKER_COUNT", "4")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("SUGGEST_ADDR", "")

		convey.Convey("Then loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given a started in-memory service behind the router", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New(ctx)
		cfg.StoreDriver = config.DriverMemory
		cfg.RetentionDays = 0

		svc := app.New(app.WithConfig(cfg))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		srv := httptest.NewServer(newRouter(svc))
		defer srv.Close()

		convey.Convey("Then health should expose metrics", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then events should be accepted", func() {
			resp, err := http.Post(srv.URL+"/events", "application/json",
				strings.NewReader(`{"suggestion_id":"com.maps","type":"shown"}`))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
		})

		convey.Convey("Then ranking an empty list should succeed", func() {
			resp, err := http.Post(srv.URL+"/rank", "application/json", strings.NewReader(`{"candidates":[]}`))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then service metrics should update without panicking", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.Convey("Then the system updater should stop with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a system update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then stats of an unstarted service should be safe to read", func() {
			svc := app.New()
			convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
		})
	})
}
