package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/pwrank/pwrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxPairJudgments, convey.ShouldEqual, 100)
			convey.So(cfg.ExplorationProbability, convey.ShouldEqual, 0.33)
			convey.So(cfg.RatingScaleMax, convey.ShouldEqual, 10.0)
			convey.So(cfg.FitTolerance, convey.ShouldEqual, 1e-6)
			convey.So(cfg.FitMaxIterations, convey.ShouldEqual, 200)
			convey.So(cfg.PriorStrength, convey.ShouldEqual, 0.5)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = " " },
			"zero queue":          func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":        func(c *config.Config) { c.WorkerCount = 0 },
			"negative dedupe":     func(c *config.Config) { c.DedupeSize = -1 },
			"negative pair cap":   func(c *config.Config) { c.MaxPairJudgments = -1 },
			"probability above 1": func(c *config.Config) { c.ExplorationProbability = 1.5 },
			"probability below 0": func(c *config.Config) { c.ExplorationProbability = -0.1 },
			"zero scale":          func(c *config.Config) { c.RatingScaleMax = 0 },
			"zero tolerance":      func(c *config.Config) { c.FitTolerance = 0 },
			"zero iterations":     func(c *config.Config) { c.FitMaxIterations = 0 },
			"zero prior":          func(c *config.Config) { c.PriorStrength = 0 },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it should be rejected as invalid config", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the probability sits on the boundaries", func() {
			lo, hi := config.New(), config.New()
			lo.ExplorationProbability = 0
			hi.ExplorationProbability = 1

			convey.Convey("Then both should be accepted", func() {
				convey.So(lo.Validate(), convey.ShouldBeNil)
				convey.So(hi.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
