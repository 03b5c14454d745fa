package stream

import "time"

// fpsMeter is a rolling frame counter that refreshes its reading once per second.
type fpsMeter struct {
	now    func() time.Time
	frames int
	start  time.Time
	fps    float64
}

func newFPSMeter(now func() time.Time) *fpsMeter {
	if now == nil {
		now = time.Now
	}
	return &fpsMeter{now: now, start: now()}
}

// Tick counts one frame and returns the current reading.
func (m *fpsMeter) Tick() float64 {
	m.frames++
	elapsed := m.now().Sub(m.start)
	if elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = m.now()
	}
	return m.fps
}
