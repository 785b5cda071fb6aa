package simulation_test

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pwrank/pwrank/internal/adapters/http/api"
	service "github.com/pwrank/pwrank/internal/app"
	"github.com/pwrank/pwrank/internal/simulation"
	"github.com/pwrank/pwrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestKendallTau(t *testing.T) {
	Convey("Given two score assignments", t, func() {
		truth := map[string]float64{"a": 3, "b": 2, "c": 1, "d": 0}

		Convey("Identical orderings should score 1", func() {
			est := map[string]float64{"a": 30, "b": 20, "c": 10, "d": 0}
			So(simulation.KendallTau(truth, est), ShouldEqual, 1.0)
		})

		Convey("Reversed orderings should score -1", func() {
			est := map[string]float64{"a": 0, "b": 1, "c": 2, "d": 3}
			So(simulation.KendallTau(truth, est), ShouldEqual, -1.0)
		})

		Convey("One swapped neighbour pair should be the only discordant pair", func() {
			est := map[string]float64{"a": 3, "b": 1, "c": 2, "d": 0}
			So(simulation.KendallTau(truth, est), ShouldAlmostEqual, 4.0/6.0, 1e-12)
		})

		Convey("Ids missing from the estimate should be ignored", func() {
			est := map[string]float64{"a": 1, "b": 0}
			So(simulation.KendallTau(truth, est), ShouldEqual, 1.0)
			So(simulation.KendallTau(truth, map[string]float64{"a": 1}), ShouldEqual, 0.0)
		})
	})
}

func TestOracle(t *testing.T) {
	Convey("Given an oracle", t, func() {
		o := simulation.NewOracle(5, 1.5, 0, 42)
		ids := o.IDs()

		Convey("It should create distinct items", func() {
			So(ids, ShouldHaveLength, 5)
			seen := map[string]bool{}
			for _, id := range ids {
				seen[id] = true
			}
			So(seen, ShouldHaveLength, 5)
		})

		Convey("Win probabilities should be complementary", func() {
			p := o.WinProbability(ids[0], ids[1])
			So(p, ShouldBeBetween, 0, 1)
			So(p+o.WinProbability(ids[1], ids[0]), ShouldAlmostEqual, 1.0, 1e-12)
			So(o.WinProbability(ids[2], ids[2]), ShouldEqual, 0.5)
		})

		Convey("Random pairs should never repeat an item", func() {
			for range 200 {
				a, b := o.RandomPair()
				So(a, ShouldNotEqual, b)
			}
		})

		Convey("Initial ratings should stay on the scale", func() {
			for _, id := range ids {
				So(o.InitialRating(id), ShouldBeBetweenOrEqual, 0, simulation.ScaleMax)
			}
		})

		Convey("A draw rate of one should always draw", func() {
			d := simulation.NewOracle(2, 1, 1, 7)
			ids := d.IDs()
			for range 20 {
				So(d.Judge(ids[0], ids[1]), ShouldEqual, "draw")
			}
		})

		Convey("The stronger item should win most judgments", func() {
			strong, weak := ids[0], ids[1]
			if o.Truth()[weak] > o.Truth()[strong] {
				strong, weak = weak, strong
			}
			if math.Abs(o.Truth()[strong]-o.Truth()[weak]) > 0.5 {
				wins := 0
				for range 1000 {
					if o.Judge(strong, weak) == "a_wins" {
						wins++
					}
				}
				So(wins, ShouldBeGreaterThan, 500)
			}
		})
	})
}

func newServer(t *testing.T, opts ...service.Option) *httptest.Server {
	t.Helper()
	opts = append([]service.Option{
		service.WithWorkerCount(2),
		service.WithMaxPairJudgments(0),
		service.WithRandomSeed(11),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running ranking service", t, func() {
		srv := newServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		Convey("When a simulation runs without initial ratings", func() {
			res, err := simulation.Run(ctx, &simulation.Config{
				BaseURL:   srv.URL,
				Items:     5,
				Judgments: 400,
				Workers:   1,
				Spread:    2,
				Seed:      3,
				Timeout:   5 * time.Second,
			})

			Convey("Then the hidden order should be recovered", func() {
				So(err, ShouldBeNil)
				So(res.Stats.ItemsAdded, ShouldEqual, 5)
				So(res.Stats.JudgmentsAccepted, ShouldEqual, 400)
				So(res.Stats.FallbackPairs, ShouldBeGreaterThan, 0)
				So(res.Stats.OptimalPairs+res.Stats.RandomPairs+res.Stats.FallbackPairs, ShouldEqual, 400)
				So(res.Ratings, ShouldHaveLength, 5)
				So(res.Stats.KendallTau, ShouldBeGreaterThan, 0.5)
				So(res.Stats.Completion, ShouldBeGreaterThan, 0)
				So(res.Stats.Completion, ShouldBeLessThanOrEqualTo, 100)
				So(res.Stats.MaxStdErr, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a simulation seeds initial ratings", func() {
			res, err := simulation.Run(ctx, &simulation.Config{
				BaseURL:     srv.URL,
				Items:       4,
				Judgments:   50,
				Workers:     4,
				SeedRatings: true,
				Seed:        5,
				Timeout:     5 * time.Second,
			})

			Convey("Then the service should propose pairs from the start", func() {
				So(err, ShouldBeNil)
				So(res.Stats.JudgmentsAccepted, ShouldEqual, 50)
				So(res.Ratings, ShouldHaveLength, 4)
			})
		})
	})

	Convey("Given a simulation with too few items", t, func() {
		_, err := simulation.Run(context.Background(), &simulation.Config{Items: 1})
		So(err, ShouldNotBeNil)
	})

	Convey("Given an unreachable service", t, func() {
		_, err := simulation.Run(context.Background(), &simulation.Config{
			BaseURL: "http://127.0.0.1:1",
			Items:   3,
			Timeout: time.Second,
		})
		So(err, ShouldNotBeNil)
	})
}
