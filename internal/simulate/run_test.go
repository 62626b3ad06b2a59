package simulate_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/suggest/internal/adapters/http/api"
	service "github.com/okian/suggest/internal/app"
	"github.com/okian/suggest/internal/config"
	"github.com/okian/suggest/internal/simulate"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(ctx context.Context) (*httptest.Server, *service.Service) {
	cfg := config.New(ctx)
	cfg.StoreDriver = config.DriverMemory
	cfg.RetentionDays = 0
	cfg.WorkerCount = 4

	svc := service.New(service.WithConfig(cfg))
	So(svc.Start(ctx), ShouldBeNil)
	return httptest.NewServer(api.NewServer(svc).Handler()), svc
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv, svc := startServer(ctx)
		defer func() {
			srv.Close()
			_ = svc.Stop(context.Background())
		}()

		Convey("When a simulation runs against it", func() {
			cfg := simulate.DefaultConfig()
			cfg.BaseURL = srv.URL
			cfg.Suggestions = 5
			cfg.Shown = 8
			cfg.SettleTimeout = 10 * time.Second

			stats, err := simulate.Run(ctx, cfg)

			Convey("Then the ranking should match the generated history", func() {
				So(err, ShouldBeNil)
				So(stats.EventsFailed, ShouldEqual, 0)
				So(stats.EventsSuccessful, ShouldEqual, 5*8+5+4+3+2+1)
				So(stats.Ranked, ShouldEqual, 5)
			})
		})

		Convey("When the command is executed with flags", func() {
			cmd := simulate.NewCommand()
			cmd.SetArgs([]string{"--url", srv.URL, "--suggestions", "3", "--shown", "3", "--prefix", "cli", "--settle", "10s"})

			Convey("Then it should succeed", func() {
				So(cmd.ExecuteContext(ctx), ShouldBeNil)
			})
		})

		Convey("When the command is given unusable flags", func() {
			cmd := simulate.NewCommand()
			cmd.SetArgs([]string{"--url", srv.URL, "--suggestions", "1"})

			Convey("Then it should fail validation", func() {
				err := cmd.ExecuteContext(ctx)
				So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
