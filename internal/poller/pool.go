package poller

import "sync"

// Job is one full scenario drive. The poll loop inside a job stays
// single-threaded; only whole scenarios run concurrently.
type Job func() error

// RunPool feeds jobs to a fixed set of worker goroutines, at most maxWorkers
// in flight at a time, and returns every error the jobs produced. A bound
// below 1 is treated as 1; a bound above the job count just means idle
// workers are never started.
func RunPool(maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > len(jobs) {
		maxWorkers = len(jobs)
	}

	queue := make(chan Job)
	failures := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if err := job(); err != nil {
					failures <- err
				}
			}
		}()
	}
	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()
	close(failures)

	var errs []error
	for err := range failures {
		errs = append(errs, err)
	}
	return errs
}
