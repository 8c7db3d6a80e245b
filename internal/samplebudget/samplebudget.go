// Package samplebudget decides how many samples to request from the
// server for a plot of a given pixel size.
package samplebudget

import "math"

// Params control the minimum on-screen footprint of one sample group.
type Params struct {
	// MinBarPx is the narrowest bar drawn for one series.
	MinBarPx int
	// IntraGapPx separates bars of the same group.
	IntraGapPx int
	// InterGroupGapPx separates adjacent groups.
	InterGroupGapPx int

	MinSamples int
	MaxSamples int
	// Step quantizes the result down to a multiple of itself.
	Step int
}

// DefaultParams returns the standard budget.
func DefaultParams() Params {
	return Params{
		MinBarPx:        3,
		IntraGapPx:      1,
		InterGroupGapPx: 4,
		MinSamples:      5,
		MaxSamples:      50,
		Step:            5,
	}
}

// minGroupFootprintPx is the smallest group size ever allowed.
const minGroupFootprintPx = 8

// Controller computes sample counts.
type Controller struct {
	params Params
}

// New returns a Controller; invalid params fall back to defaults.
func New(params Params) *Controller {
	def := DefaultParams()
	if params.MinBarPx <= 0 {
		params.MinBarPx = def.MinBarPx
	}
	if params.IntraGapPx < 0 {
		params.IntraGapPx = def.IntraGapPx
	}
	if params.InterGroupGapPx < 0 {
		params.InterGroupGapPx = def.InterGroupGapPx
	}
	if params.Step <= 0 {
		params.Step = def.Step
	}
	if params.MinSamples <= 0 {
		params.MinSamples = def.MinSamples
	}
	// Both bounds are multiples of Step so every count is too.
	params.MinSamples = roundUp(params.MinSamples, params.Step)
	if params.MaxSamples < params.MinSamples {
		params.MaxSamples = max(def.MaxSamples, params.MinSamples)
	}
	params.MaxSamples = max(params.MaxSamples-params.MaxSamples%params.Step, params.MinSamples)
	return &Controller{params: params}
}

func roundUp(n, step int) int {
	if r := n % step; r != 0 {
		return n + step - r
	}
	return n
}

// Params returns the controller's effective parameters.
func (c *Controller) Params() Params {
	return c.params
}

// SampleCount returns the number of samples to request for a plot widthCss
// CSS pixels wide at the device pixel ratio dpr showing seriesCount series.
func (c *Controller) SampleCount(widthCss, dpr float64, seriesCount int) int {
	p := c.params

	effective := max(1, widthCss) * max(1, dpr)
	if math.IsNaN(effective) {
		effective = 1
	}

	n := max(1, seriesCount)
	footprint := max(
		minGroupFootprintPx,
		n*p.MinBarPx+(n-1)*p.IntraGapPx+p.InterGroupGapPx,
	)

	raw := math.Floor(effective / float64(footprint))
	if raw > float64(p.MaxSamples) {
		raw = float64(p.MaxSamples)
	}

	count := int(raw)
	count -= count % p.Step
	return min(max(count, p.MinSamples), p.MaxSamples)
}
