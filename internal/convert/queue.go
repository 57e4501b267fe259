package convert

// Job is one source to convert into one target.
type Job struct {
	Index  int
	Source string
	Target string
}

// Queue is a closed, pre-filled FIFO of jobs. Dequeue never blocks: every
// job is known before the first worker starts.
type Queue struct {
	ch chan Job
}

// NewQueue enqueues jobs in order and closes the queue.
func NewQueue(jobs []Job) *Queue {
	ch := make(chan Job, len(jobs))
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	return &Queue{ch: ch}
}

// Dequeue returns the next job, or false once the queue is drained. It is
// safe for concurrent use.
func (q *Queue) Dequeue() (Job, bool) {
	j, ok := <-q.ch
	return j, ok
}

// Len is the number of jobs not yet dequeued.
func (q *Queue) Len() int { return len(q.ch) }

// Jobs pairs sources with targets by position.
func Jobs(sources, targets []string) ([]Job, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if len(sources) != len(targets) {
		return nil, countMismatch(len(sources), len(targets))
	}
	jobs := make([]Job, len(sources))
	for i := range sources {
		jobs[i] = Job{Index: i, Source: sources[i], Target: targets[i]}
	}
	return jobs, nil
}
