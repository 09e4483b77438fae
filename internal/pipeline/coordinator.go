package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Sink consumes pipeline messages. All methods are called from a single
// goroutine, so implementations need no locking of their own.
type Sink interface {
	HandleFlush(FlushMessage) error
	HandleError(ErrorMessage) error
	HandleProgress(ProgressMessage)
}

// Run processes the given stations concurrently. Workers pull station IDs
// from a shared channel and run the full per-station pipeline; a single
// coordinator goroutine drains their messages into the sink, so each
// histogram table arrives at the sink whole and in order within its station.
//
// Run returns after all stations finish or the first hard failure. Parse
// errors are not hard failures; they flow to the sink as messages.
func (p *Pipeline) Run(ctx context.Context, stations []string, fromYear, toYear, workers int, sink Sink) error {
	if workers < 1 {
		workers = 1
	}

	work := make(chan string)
	out := make(chan Message, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stationID := range work {
				if wctx.Err() != nil {
					return
				}
				if err := p.RunStation(wctx, stationID, fromYear, toYear, out); err != nil {
					fail(err)
					cancel()
					return
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, stationID := range stations {
			select {
			case work <- stationID:
			case <-wctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for msg := range out {
		switch m := msg.(type) {
		case FlushMessage:
			if err := sink.HandleFlush(m); err != nil {
				fail(err)
				cancel()
			}
		case ProgressMessage:
			sink.HandleProgress(m)
		case ErrorMessage:
			if err := sink.HandleError(m); err != nil {
				fail(err)
				cancel()
			}
		default:
			panic("pipeline: unknown message type")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline interrupted: %w", err)
	}
	return nil
}
