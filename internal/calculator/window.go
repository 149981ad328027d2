package calculator

import "math"

// rollingWindow keeps the last `period` observations in a circular buffer and
// maintains their mean and sum of squared deviations incrementally. The
// running sums are recomputed from the buffer every time it wraps so rounding
// error cannot accumulate across windows.
type rollingWindow struct {
	buf     []float64
	idx     int // next write position
	count   int // observations held, capped at len(buf)
	nonzero int // observations in the window that are != 0
	run     int // length of the trailing run of equal observations
	last    float64
	mean    float64
	m2      float64
}

func newRollingWindow(period int) *rollingWindow {
	return &rollingWindow{buf: make([]float64, period)}
}

// Push adds x, evicting the oldest observation once the window is full.
func (w *rollingWindow) Push(x float64) {
	n := len(w.buf)
	if w.count < n {
		w.count++
		delta := x - w.mean
		w.mean += delta / float64(w.count)
		w.m2 += delta * (x - w.mean)
	} else {
		y := w.buf[w.idx]
		if y != 0 {
			w.nonzero--
		}
		oldMean := w.mean
		w.mean += (x - y) / float64(n)
		w.m2 += (x - y) * (x - w.mean + y - oldMean)
	}
	if x != 0 {
		w.nonzero++
	}
	if w.count > 1 && x == w.last {
		w.run++
	} else {
		w.run = 1
	}
	w.last = x
	w.buf[w.idx] = x
	w.idx = (w.idx + 1) % n
	if w.idx == 0 && w.count == n {
		w.resync()
	}
}

// resync recomputes mean and m2 from the buffer with a two-pass sum.
func (w *rollingWindow) resync() {
	var sum float64
	for _, v := range w.buf {
		sum += v
	}
	mean := sum / float64(len(w.buf))
	var m2 float64
	for _, v := range w.buf {
		d := v - mean
		m2 += d * d
	}
	w.mean, w.m2 = mean, m2
}

// Reset drops all observations.
func (w *rollingWindow) Reset() {
	w.idx, w.count, w.nonzero, w.run = 0, 0, 0, 0
	w.last, w.mean, w.m2 = 0, 0, 0
	for i := range w.buf {
		w.buf[i] = 0
	}
}

func (w *rollingWindow) Ready() bool { return w.count == len(w.buf) }

// uniform reports whether every held observation is the same value.
func (w *rollingWindow) uniform() bool { return w.count > 0 && w.run >= w.count }

// Mean is exact when every observation in the window is equal, which
// includes the all-zero window.
func (w *rollingWindow) Mean() float64 {
	if w.nonzero == 0 {
		return 0
	}
	if w.uniform() {
		return w.last
	}
	return w.mean
}

// StdDev returns the population standard deviation of the window.
func (w *rollingWindow) StdDev() float64 {
	if w.count == 0 || w.uniform() {
		return 0
	}
	v := w.m2 / float64(w.count)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}
