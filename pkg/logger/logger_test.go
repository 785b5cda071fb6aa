package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			err := Init()

			Convey("Then Get should return a logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat("JSON")), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "fit complete",
				String("session_id", "s1"),
				Int("iterations", 12),
				Bool("converged", true),
				Duration("took", time.Millisecond),
				Strings("items", []string{"a", "b"}),
				Error(errors.New("boom")),
			)

			Convey("Then one json record should carry every field", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "fit complete")
				So(rec["session_id"], ShouldEqual, "s1")
				So(rec["iterations"], ShouldEqual, 12.0)
				So(rec["converged"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging through a named logger", func() {
			Named("fitter").Warn(ctx, "not converged", Int("iterations", 200))

			Convey("Then fields should be grouped under the name", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				group, ok := rec["fitter"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["iterations"], ShouldEqual, 200.0)
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a text logger at warn level", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithLevel(slog.LevelWarn)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging below the level", func() {
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden too")

			Convey("Then nothing should be written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered by name", func() {
			So(SetLevelString(" Debug "), ShouldBeNil)
			Get().Debug(ctx, "visible")

			Convey("Then debug records should be written", func() {
				So(strings.Contains(buf.String(), "visible"), ShouldBeTrue)
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("loud")

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
