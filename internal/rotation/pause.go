package rotation

import "sync"

// PauseLatch remembers the latest pause signal from an input (hover, focus)
// and forwards it to whichever controller is subscribed. A controller that
// subscribes later starts from the remembered state.
type PauseLatch struct {
	mu     sync.Mutex
	paused bool
	gen    uint64
	set    func(bool)
}

// Source is a PauseSource.
func (l *PauseLatch) Source(setPaused func(bool)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	gen := l.gen
	l.set = setPaused
	if l.paused {
		setPaused(true)
	}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.gen == gen {
			l.set = nil
		}
	}
}

func (l *PauseLatch) Set(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paused == paused {
		return
	}
	l.paused = paused
	if l.set != nil {
		l.set(paused)
	}
}

func (l *PauseLatch) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}
