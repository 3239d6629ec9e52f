package param

import "slices"

// sampler evaluates every component of a numeric parameter at t. Callers
// hold the parameter's read lock for the whole derive or integrate pass so
// all samples see one consistent state.
type sampler func(t Time) []float64

// derive approximates the rate of change at t by symmetric difference.
func derive(f sampler, t Time, h float64) []float64 {
	hi, lo := f(t+Time(h)), f(t-Time(h))
	out := make([]float64, len(hi))
	for i := range hi {
		out[i] = (hi[i] - lo[i]) / (2 * h)
	}
	return out
}

// integrate accumulates trapezoids over n uniform intervals of [t1, t2],
// splitting additionally at every knot inside the interval. With linear
// interpolation and knots set to the keyframe times the result is exact.
// Reversed bounds negate the result.
func integrate(f sampler, t1, t2 Time, n int, knots []Time) []float64 {
	sign := 1.0
	if t2 < t1 {
		t1, t2 = t2, t1
		sign = -1
	}

	pts := make([]Time, 0, n+1+len(knots))
	step := (t2 - t1) / Time(n)
	for i := 0; i < n; i++ {
		pts = append(pts, t1+Time(i)*step)
	}
	pts = append(pts, t2)
	for _, k := range knots {
		if k > t1 && k < t2 {
			pts = append(pts, k)
		}
	}
	slices.Sort(pts)
	pts = slices.Compact(pts)

	prevT, prev := pts[0], f(pts[0])
	out := make([]float64, len(prev))
	for _, t := range pts[1:] {
		cur := f(t)
		w := float64(t - prevT)
		for i := range out {
			out[i] += (prev[i] + cur[i]) * w / 2
		}
		prevT, prev = t, cur
	}
	for i := range out {
		out[i] *= sign
	}
	return out
}
