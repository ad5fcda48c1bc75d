package campaign

import "sync"

// Broadcaster fans job state deltas out to live observers.
//
// Delivery is best-effort: a subscriber that cannot keep up is silently
// dropped, and there is no ordering guarantee beyond per-subscriber FIFO of
// the events it does receive.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// subBuffer bounds how far a slow observer may lag before being dropped.
const subBuffer = 64

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[string]map[chan Event]struct{}{}}
}

// Subscribe registers an observer for a job and returns its event channel
// plus a cancel func. The caller receives the current full snapshot first
// (catch-up), then every subsequent delta.
//
// Subscribing to an already-completed job yields only the terminal event;
// the channel is closed immediately after.
func (b *Broadcaster) Subscribe(job Job) (<-chan Event, func()) {
	ch := make(chan Event, subBuffer)

	if job.Status == JobComplete {
		j := job
		ch <- Event{Type: EventComplete, JobID: job.ID, Job: &j}
		close(ch)
		return ch, func() {}
	}

	j := job
	ch <- Event{Type: EventInit, JobID: job.ID, Job: &j}

	b.mu.Lock()
	set, ok := b.subs[job.ID]
	if !ok {
		set = map[chan Event]struct{}{}
		b.subs[job.ID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() { b.remove(job.ID, ch) }
	return ch, cancel
}

// Publish delivers one event to every subscriber of the job.
// A full channel counts as a write failure: the sink is removed and closed.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.JobID] {
		select {
		case ch <- ev:
		default:
			delete(b.subs[ev.JobID], ch)
			close(ch)
		}
	}
}

// Complete sends the terminal event to all subscribers of the job and clears
// the subscriber set. Later subscribes hit the completed-job path above.
func (b *Broadcaster) Complete(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.JobID] {
		select {
		case ch <- ev:
		default:
		}
		close(ch)
	}
	delete(b.subs, ev.JobID)
}

// Forget drops all subscribers of a job without a terminal event
// (job deleted mid-flight).
func (b *Broadcaster) Forget(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[jobID] {
		close(ch)
	}
	delete(b.subs, jobID)
}

func (b *Broadcaster) remove(jobID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[jobID]
	if !ok {
		return
	}
	if _, live := set[ch]; live {
		delete(set, ch)
		close(ch)
	}
	if len(set) == 0 {
		delete(b.subs, jobID)
	}
}
