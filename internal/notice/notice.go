// Package notice delivers user-facing messages: one-shot notices and a
// single progress line that is updated in place.
package notice

import "sync"

// Notifier shows messages to the user.
type Notifier interface {
	// Notify shows a transient message.
	Notify(msg string)
	// Progress opens a progress notice showing msg.
	Progress(msg string) Progress
}

// Progress is a notice whose text can be replaced until it is closed.
type Progress interface {
	Update(msg string)
	Done()
}

// Recorder keeps every message in memory. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	notices  []string
	progress []string
	closed   int
}

func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

func (r *Recorder) Progress(msg string) Progress {
	p := &recordedProgress{r: r}
	p.Update(msg)
	return p
}

// Notices returns a copy of the messages passed to Notify.
func (r *Recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// ProgressUpdates returns every text any progress notice showed, in order.
func (r *Recorder) ProgressUpdates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.progress...)
}

// Closed returns how many progress notices were closed.
func (r *Recorder) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type recordedProgress struct {
	r    *Recorder
	done bool
}

func (p *recordedProgress) Update(msg string) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	if p.done {
		return
	}
	p.r.progress = append(p.r.progress, msg)
}

func (p *recordedProgress) Done() {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.r.closed++
}
