package logger_test

import (
	"context"
	"testing"

	"github.com/miyabi-lab/encore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then Get returns a usable logger", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)
			// Should not panic.
			l.Info(context.Background(), "hello",
				logger.String("k", "v"),
				logger.Int("n", 1),
				logger.Bool("b", true),
			)
		})

		Convey("And Named returns a scoped logger", func() {
			l := logger.Named("component")
			So(l, ShouldNotBeNil)
			l.Debug(context.Background(), "scoped")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then known names parse", func() {
			for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO  "} {
				So(logger.SetLevelString(level), ShouldBeNil)
			}
		})

		Convey("And unknown names are rejected", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
