// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampler

// SamplesPerAxis is the number of conversions averaged per axis per tick.
const SamplesPerAxis = 8

// FracBits is the number of fractional bits carried by an axis sample.
const FracBits = 2

// filterBurst returns the mean of samples after dropping those further than
// one standard deviation from the plain mean.
func filterBurst(samples *[SamplesPerAxis]int32) int32 {
	var sum int32
	for _, s := range samples {
		sum += s
	}
	mean := sum >> 3

	var sq uint32
	for _, s := range samples {
		d := s - mean
		sq += uint32(d * d)
	}
	dev := int32(isqrt(sq / SamplesPerAxis))

	var kept, count int32
	for _, s := range samples {
		d := s - mean
		if d < 0 {
			d = -d
		}
		if d <= dev {
			kept += s
			count++
		}
	}
	if count == 0 {
		return mean
	}
	return kept / count
}

// blend folds mean into a fixed-point accumulator with quarter-life smoothing.
func blend(accum, mean int32) int32 {
	return accum - descale(accum) + mean
}

// descale rounds a fixed-point sample to raw units.
func descale(accum int32) int32 {
	return (accum + 2) >> FracBits
}

func isqrt(n uint32) uint32 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
