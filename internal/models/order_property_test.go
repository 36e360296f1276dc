package models

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: every canonically constructed vertical with distinct strikes
// in the correct orientation passes validation, and its width equals the
// strike distance.
func TestProperty_VerticalWidthMatchesStrikeDistance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	strikeGen := gen.Float64Range(4000, 8000).Map(func(v float64) float64 {
		return float64(int(v/5)) * 5 // snap to 5-point grid
	})
	widthGen := gen.Float64Range(5, 100).Map(func(v float64) float64 {
		return float64(int(v/5)) * 5
	})

	properties.Property("bull put validates with width = short - long", prop.ForAll(
		func(short, width float64) bool {
			if width < 5 {
				width = 5
			}
			o := NewBullPutVertical("p", short, short-width, 1, nil, "")
			return o.Validate() == nil && o.Width() == width && o.Side() == Credit
		},
		strikeGen, widthGen,
	))

	properties.Property("bear call validates with width = long - short", prop.ForAll(
		func(short, width float64) bool {
			if width < 5 {
				width = 5
			}
			o := NewBearCallVertical("p", short, short+width, 1, nil, "")
			return o.Validate() == nil && o.Width() == width && o.Side() == Credit
		},
		strikeGen, widthGen,
	))

	properties.TestingRun(t)
}

// Property: symmetric iron condors and flies validate and report a
// single wing's width; symmetric butterflies validate, report the full
// span, and are always debit.
func TestProperty_WingStructuresValidateSymmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	centerGen := gen.Float64Range(4000, 8000).Map(func(v float64) float64 {
		return float64(int(v/5)) * 5
	})
	wingGen := gen.Float64Range(5, 50).Map(func(v float64) float64 {
		w := float64(int(v/5)) * 5
		if w < 5 {
			w = 5
		}
		return w
	})
	gapGen := gen.Float64Range(10, 100).Map(func(v float64) float64 {
		g := float64(int(v/5)) * 5
		if g < 10 {
			g = 10
		}
		return g
	})

	properties.Property("iron condor width is one wing", prop.ForAll(
		func(center, wing, gap float64) bool {
			o := NewIronCondor("p", center-gap-wing, center-gap, center+gap, center+gap+wing, 1, nil, "")
			return o.Validate() == nil && o.Width() == wing
		},
		centerGen, wingGen, gapGen,
	))

	properties.Property("iron fly width is one wing", prop.ForAll(
		func(center, wing float64) bool {
			o := NewIronFly("p", center, wing, 1, nil, "")
			return o.Validate() == nil && o.Width() == wing
		},
		centerGen, wingGen,
	))

	properties.Property("butterfly width is the full span and side is debit", prop.ForAll(
		func(center, half float64) bool {
			o := NewPutButterfly("p", center-half, center, center+half, 1, nil, "")
			return o.Validate() == nil && o.Width() == 2*half && o.Side() == Debit
		},
		centerGen, wingGen,
	))

	properties.TestingRun(t)
}
