package controller

// ActionFilter rate-limits and smooths raw policy actions against the
// previous tick's applied command. Raw network or exploration output flips
// sign tick to tick; actuating it directly shakes the robot apart. The
// delta clamp bounds the worst-case jump and the blend removes the
// residual high-frequency jitter; both are needed together.
type ActionFilter struct {
	maxDelta  float32
	smoothing float32 // weight of the new (rate-limited) value
	last      []float32
}

// NewActionFilter creates a filter with the given per-tick delta clamp and
// new-value blend weight. The previous command starts at all zeros, the
// actuator rest state.
func NewActionFilter(motorCount int, maxDelta, smoothing float32) *ActionFilter {
	return &ActionFilter{
		maxDelta:  maxDelta,
		smoothing: smoothing,
		last:      make([]float32, motorCount),
	}
}

// Apply post-processes a raw action into the command to actuate and
// records it as the new previous command. Per motor: clamp the requested
// delta to ±maxDelta, then blend the limited value with the previous one.
func (f *ActionFilter) Apply(raw []float32) []float32 {
	out := make([]float32, len(f.last))
	for i := range f.last {
		var want float32
		if i < len(raw) {
			want = clamp32(raw[i], -1, 1)
		}
		delta := clamp32(want-f.last[i], -f.maxDelta, f.maxDelta)
		limited := f.last[i] + delta
		out[i] = f.smoothing*limited + (1-f.smoothing)*f.last[i]
		f.last[i] = out[i]
	}
	return out
}

// Last returns a copy of the previous applied command.
func (f *ActionFilter) Last() []float32 {
	return append([]float32(nil), f.last...)
}

// Reset returns the previous command to the all-zero rest state.
func (f *ActionFilter) Reset() {
	for i := range f.last {
		f.last[i] = 0
	}
}
