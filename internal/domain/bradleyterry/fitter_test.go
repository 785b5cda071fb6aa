package bradleyterry_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	bt "github.com/pwrank/pwrank/internal/domain/bradleyterry"
	"github.com/pwrank/pwrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func chain() []model.PairTally {
	return []model.PairTally{
		{ItemLow: "A", ItemHigh: "B", WinLow: 10},
		{ItemLow: "B", ItemHigh: "C", WinLow: 10},
		{ItemLow: "C", ItemHigh: "D", WinLow: 10},
	}
}

func longChain(n int) []model.PairTally {
	out := make([]model.PairTally, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, model.PairTally{
			ItemLow:  fmt.Sprintf("item-%02d", i-1),
			ItemHigh: fmt.Sprintf("item-%02d", i),
			WinLow:   10,
		})
	}
	return out
}

func ids(m *model.FittedModel) []string {
	out := make([]string, 0, m.Len())
	for _, e := range m.Estimates {
		out = append(out, e.ItemID)
	}
	return out
}

func TestFit_TwoItems(t *testing.T) {
	Convey("Given A beating B three times out of four", t, func() {
		tallies := []model.PairTally{{ItemLow: "A", ItemHigh: "B", WinLow: 3, WinHigh: 1}}

		Convey("When fitting", func() {
			fm, err := bt.Fit(tallies)

			Convey("Then abilities match the closed-form maximum likelihood", func() {
				So(err, ShouldBeNil)
				So(fm.Converged, ShouldBeTrue)
				So(fm.Regularized, ShouldBeFalse)
				So(ids(fm), ShouldResemble, []string{"A", "B"})
				So(fm.Estimates[0].Ability, ShouldAlmostEqual, math.Log(3)/2, 1e-6)
				So(fm.Estimates[1].Ability, ShouldAlmostEqual, -math.Log(3)/2, 1e-6)
				So(fm.LogLikelihood, ShouldAlmostEqual, 3*math.Log(0.75)+math.Log(0.25), 1e-9)
			})

			Convey("And standard errors come from the Fisher information", func() {
				for _, e := range fm.Estimates {
					So(e.StdErrDefined, ShouldBeTrue)
					So(e.StdErr, ShouldAlmostEqual, math.Sqrt(1.0/3.0), 1e-6)
					So(e.Comparisons, ShouldEqual, 4)
				}
				So(fm.Estimates[0].Rank, ShouldEqual, 1)
				So(fm.Estimates[1].Rank, ShouldEqual, 2)
			})
		})
	})
}

func TestFit_Chain(t *testing.T) {
	Convey("Given a chain A>B>C>D with every game won by the stronger item", t, func() {
		Convey("When fitting", func() {
			fm, err := bt.Fit(chain())

			Convey("Then abilities are finite and strictly decreasing in chain order", func() {
				So(err, ShouldBeNil)
				So(fm.Regularized, ShouldBeTrue)
				So(fm.Converged, ShouldBeTrue)
				So(fm.Iterations, ShouldBeLessThan, 50)
				So(ids(fm), ShouldResemble, []string{"A", "B", "C", "D"})
				for i := 1; i < len(fm.Estimates); i++ {
					So(fm.Estimates[i].Ability, ShouldBeLessThan, fm.Estimates[i-1].Ability)
				}
				for _, e := range fm.Estimates {
					So(math.IsInf(e.Ability, 0), ShouldBeFalse)
					So(e.StdErrDefined, ShouldBeTrue)
					So(e.StdErr, ShouldBeGreaterThan, 0)
				}
			})

			Convey("And abilities are centred at zero", func() {
				sum := 0.0
				for _, e := range fm.Estimates {
					sum += e.Ability
				}
				So(sum, ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("And the end items are less certain than the middle ones", func() {
				So(fm.Estimates[0].StdErr, ShouldBeGreaterThan, fm.Estimates[1].StdErr)
				So(fm.Estimates[3].StdErr, ShouldBeGreaterThan, fm.Estimates[2].StdErr)
			})
		})

		Convey("When fitting twice with identical settings", func() {
			first, err1 := bt.Fit(chain(), bt.WithTolerance(1e-8), bt.WithMaxIterations(500))
			second, err2 := bt.Fit(chain(), bt.WithTolerance(1e-8), bt.WithMaxIterations(500))

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When fitting with a very tight tolerance", func() {
			loose, errLoose := bt.Fit(chain())
			tight, errTight := bt.Fit(chain(), bt.WithTolerance(1e-12))

			Convey("Then the default fit already sits at the optimum", func() {
				So(errLoose, ShouldBeNil)
				So(errTight, ShouldBeNil)
				So(tight.Converged, ShouldBeTrue)
				for i, e := range loose.Estimates {
					So(e.Ability, ShouldAlmostEqual, tight.Estimates[i].Ability, 1e-6)
				}
			})
		})

		Convey("When the iteration cap is hit", func() {
			fm, err := bt.Fit(chain(), bt.WithMaxIterations(1))

			Convey("Then the best estimate is returned with the warning flag", func() {
				So(err, ShouldBeNil)
				So(fm.Converged, ShouldBeFalse)
				So(fm.Iterations, ShouldEqual, 1)
				So(fm.Len(), ShouldEqual, 4)
			})
		})
	})
}

func TestFit_LongChains(t *testing.T) {
	Convey("Given chains where every game is won by the stronger item", t, func() {
		for _, n := range []int{10, 30} {
			Convey(fmt.Sprintf("When fitting a chain of %d items with default options", n), func() {
				fm, err := bt.Fit(longChain(n))

				Convey("Then the fit converges in chain order", func() {
					So(err, ShouldBeNil)
					So(fm.Regularized, ShouldBeTrue)
					So(fm.Converged, ShouldBeTrue)
					So(fm.Len(), ShouldEqual, n)
					for i, e := range fm.Estimates {
						So(e.ItemID, ShouldEqual, fmt.Sprintf("item-%02d", i))
					}
				})
			})
		}
	})
}

func TestFit_Comparisons(t *testing.T) {
	Convey("Given a pair with draws and a pair holding a single draw", t, func() {
		tallies := []model.PairTally{
			// one raw win for A plus three draws split one each way
			{ItemLow: "A", ItemHigh: "B", WinLow: 2, WinHigh: 1, DrawCount: 3},
			{ItemLow: "A", ItemHigh: "C", DrawCount: 1},
		}

		Convey("When fitting", func() {
			fm, err := bt.Fit(tallies)

			Convey("Then comparisons count raw judgments with draws unsplit", func() {
				So(err, ShouldBeNil)
				a, ok := fm.Estimate("A")
				So(ok, ShouldBeTrue)
				So(a.Comparisons, ShouldEqual, 5)
				b, ok := fm.Estimate("B")
				So(ok, ShouldBeTrue)
				So(b.Comparisons, ShouldEqual, 4)
			})
		})
	})
}

func TestFit_Cycle(t *testing.T) {
	Convey("Given a strongly connected set of results", t, func() {
		tallies := []model.PairTally{
			{ItemLow: "a", ItemHigh: "b", WinLow: 6, WinHigh: 2},
			{ItemLow: "b", ItemHigh: "c", WinLow: 5, WinHigh: 3},
			{ItemLow: "a", ItemHigh: "c", WinLow: 2, WinHigh: 1},
		}

		Convey("When fitting", func() {
			fm, err := bt.Fit(tallies)

			Convey("Then the exact maximum likelihood is found without a prior", func() {
				So(err, ShouldBeNil)
				So(fm.Regularized, ShouldBeFalse)
				So(fm.Converged, ShouldBeTrue)
				So(ids(fm), ShouldResemble, []string{"a", "b", "c"})
			})

			Convey("And the score equations hold at the estimate", func() {
				pi := map[string]float64{}
				for _, e := range fm.Estimates {
					pi[e.ItemID] = math.Exp(e.Ability)
				}
				expected := 0.0
				for _, t := range tallies {
					if t.ItemLow == "a" || t.ItemHigh == "a" {
						other := t.ItemHigh
						if other == "a" {
							other = t.ItemLow
						}
						expected += float64(t.Games()) * pi["a"] / (pi["a"] + pi[other])
					}
				}
				So(expected, ShouldAlmostEqual, 8.0, 1e-4)
			})
		})
	})
}

func TestFit_Errors(t *testing.T) {
	Convey("Given two disconnected pairs", t, func() {
		tallies := []model.PairTally{
			{ItemLow: "A", ItemHigh: "B", WinLow: 2, WinHigh: 1},
			{ItemLow: "C", ItemHigh: "D", WinLow: 1, WinHigh: 3},
		}

		Convey("When fitting", func() {
			fm, err := bt.Fit(tallies)

			Convey("Then it fails naming both components", func() {
				So(fm, ShouldBeNil)
				So(errors.Is(err, bt.ErrUnidentifiableModel), ShouldBeTrue)
				var uerr *bt.UnidentifiableModelError
				So(errors.As(err, &uerr), ShouldBeTrue)
				So(uerr.Components, ShouldResemble, [][]string{{"A", "B"}, {"C", "D"}})
				So(err.Error(), ShouldContainSubstring, "{A, B} {C, D}")
			})
		})
	})

	Convey("Given fewer than two items with decided games", t, func() {
		Convey("When there are no tallies", func() {
			_, err := bt.Fit(nil)

			Convey("Then it fails with insufficient data", func() {
				So(errors.Is(err, bt.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When the only pair has a single draw rounded away", func() {
			_, err := bt.Fit([]model.PairTally{{ItemLow: "A", ItemHigh: "B", DrawCount: 1}})

			Convey("Then it fails with insufficient data", func() {
				So(errors.Is(err, bt.ErrInsufficientData), ShouldBeTrue)
			})
		})
	})

	Convey("Given a malformed tally", t, func() {
		_, err := bt.Fit([]model.PairTally{{ItemLow: "A", ItemHigh: "A", WinLow: 1}})

		Convey("Then it is rejected", func() {
			So(errors.Is(err, bt.ErrInvalidTally), ShouldBeTrue)
		})
	})
}

func TestFit_ExcludesUncompared(t *testing.T) {
	Convey("Given an item that only appears in an empty pair", t, func() {
		tallies := []model.PairTally{
			{ItemLow: "A", ItemHigh: "B", WinLow: 2, WinHigh: 1},
			{ItemLow: "A", ItemHigh: "C", DrawCount: 1},
		}

		Convey("When fitting", func() {
			fm, err := bt.Fit(tallies)

			Convey("Then the item gets no default ability", func() {
				So(err, ShouldBeNil)
				So(fm.Len(), ShouldEqual, 2)
				_, ok := fm.Estimate("C")
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a tally written in non-canonical order", t, func() {
		swapped := []model.PairTally{{ItemLow: "B", ItemHigh: "A", WinLow: 1, WinHigh: 3}}
		canonical := []model.PairTally{{ItemLow: "A", ItemHigh: "B", WinLow: 3, WinHigh: 1}}

		Convey("Then the fit is the same as for the canonical tally", func() {
			a, errA := bt.Fit(swapped)
			b, errB := bt.Fit(canonical)
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(a, ShouldResemble, b)
		})
	})
}
