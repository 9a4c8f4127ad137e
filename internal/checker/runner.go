package checker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

type Runner struct {
	config       Config
	log          logrus.FieldLogger
	progressChan chan<- ProgressUpdate
}

func NewRunner(config Config, log logrus.FieldLogger) *Runner {
	if config.Parallel < 1 {
		config.Parallel = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{config: config, log: log}
}

// SetProgressChannel makes the runner publish an update after every check.
// Sends never block; updates are dropped when the channel is full.
func (r *Runner) SetProgressChannel(ch chan<- ProgressUpdate) {
	r.progressChan = ch
}

// Run checks every source and returns the results in input order. With
// FailFast set, no new check starts after the first result that is not ok,
// and only the checks that ran are returned. A timeout or cancellation of
// ctx returns the results gathered so far together with the context error.
func (r *Runner) Run(ctx context.Context, sources []Source) ([]Result, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.config.Timeout)*time.Second)
		defer cancel()
	}
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var progress *progressbar.ProgressBar
	if r.config.ShowProgress {
		progress = progressbar.NewOptions(len(sources),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("[checking]"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
	}

	workers := r.config.Parallel
	if workers > len(sources) {
		workers = len(sources)
	}

	results := make([]*Result, len(sources))
	jobs := make(chan int)
	startTime := time.Now()

	var mu sync.Mutex
	var completed int

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for idx := range jobs {
				if runCtx.Err() != nil {
					continue
				}

				result := CheckSource(sources[idx])

				mu.Lock()
				results[idx] = &result
				completed++
				current := completed
				mu.Unlock()

				r.report(worker, result, current, len(sources), startTime, progress)

				if r.config.FailFast && !result.OK() {
					stop()
				}
			}
		}(i)
	}

dispatch:
	for idx := range sources {
		if runCtx.Err() != nil {
			break
		}
		select {
		case jobs <- idx:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]Result, 0, len(sources))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("check run interrupted after %d of %d keys: %w", len(out), len(sources), err)
	}
	return out, nil
}

func (r *Runner) report(worker int, result Result, current, total int, startTime time.Time, progress *progressbar.ProgressBar) {
	entry := r.log.WithFields(logrus.Fields{
		"worker":  worker,
		"source":  result.Source,
		"claimed": result.Claimed,
		"status":  result.Status,
	})
	switch {
	case result.Status == StatusError:
		entry.WithField("error", result.Error).Warn("Key could not be checked")
	case r.config.Verbose:
		entry.WithField("address", result.Address).Info("Key checked")
	default:
		entry.WithField("address", result.Address).Debug("Key checked")
	}

	if progress != nil {
		progress.Add(1)
	}

	if r.progressChan != nil {
		elapsed := time.Since(startTime).Seconds()
		update := ProgressUpdate{
			Current:    current,
			Total:      total,
			Percentage: float64(current) / float64(total) * 100,
			Source:     result.Source,
			Status:     result.Status,
		}
		if elapsed > 0 {
			update.Rate = float64(current) / elapsed
		}
		select {
		case r.progressChan <- update:
		default:
		}
	}
}
