package chat

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout is a small worker pool so a large group push never runs on the
// sender's handler goroutine.
type Fanout struct {
	jobs    chan fanoutJob
	onStale func(*Client)
}

// NewFanout starts the workers. onStale is called for clients whose queue
// rejected the payload; may be nil.
func NewFanout(workers, queue int, onStale func(*Client)) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue), onStale: onStale}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					if !c.TryPush(job.payload) && f.onStale != nil {
						f.onStale(c)
					}
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() { close(f.jobs) }
