package bridge

// pacer decides the commit cadence for inbound audio. Count-based: a
// commit is due every `every` frames, and never when nothing has been
// appended since the previous commit.
type pacer struct {
	every  int
	frames int
}

func newPacer(every int) pacer {
	if every <= 0 {
		every = 1
	}
	return pacer{every: every}
}

// observe counts one appended frame and reports whether a commit is due.
func (p *pacer) observe() bool {
	p.frames++
	return p.frames >= p.every
}

// pending reports whether any audio was appended since the last commit.
func (p *pacer) pending() bool {
	return p.frames > 0
}

// reset clears the counter after a commit.
func (p *pacer) reset() {
	p.frames = 0
}
