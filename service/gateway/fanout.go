package gateway

// Fanout spreads a broadcast over a small worker pool so one wide presence
// change doesn't stall the event that triggered it.
type fanoutJob struct {
	conns   []*Client
	payload []byte
}

type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					// slow clients drop frames, they don't block the pool
					c.Enqueue(job.payload)
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, e *Event) {
	if len(conns) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: e.Encode()}
}

func (f *Fanout) Close() { close(f.jobs) }
