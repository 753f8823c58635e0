package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/pipeline"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

type slowEvaluator struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (e *slowEvaluator) Evaluate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error) {
	e.calls.Add(1)
	n := e.running.Add(1)
	defer e.running.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &pipeline.Outcome{Submission: &entity.Submission{StudentName: req.Session.StudentName}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request(name string) pipeline.Request {
	return pipeline.Request{Session: &session.Session{ID: name, StudentName: name}}
}

func TestQueueBoundsConcurrency(t *testing.T) {
	ev := &slowEvaluator{delay: 20 * time.Millisecond}
	q := NewEvaluationQueue(ev, quietLogger(), WithWorkers(2), WithQueueSize(8))
	defer q.Shutdown(context.Background())

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			out, err := q.Evaluate(context.Background(), request(name))
			if err != nil {
				errs <- err
				return
			}
			if out.Submission.StudentName != name {
				errs <- errors.New("result routed to the wrong caller")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := ev.calls.Load(); got != 6 {
		t.Fatalf("calls: want=6 got=%d", got)
	}
	if got := ev.peak.Load(); got > 2 {
		t.Fatalf("peak concurrency: want<=2 got=%d", got)
	}
}

func TestQueueCallerCancellation(t *testing.T) {
	ev := &slowEvaluator{delay: time.Second}
	q := NewEvaluationQueue(ev, quietLogger(), WithWorkers(1))
	defer q.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Evaluate(ctx, request("slow"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Evaluate: want DeadlineExceeded got=%v", err)
	}
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewEvaluationQueue(&slowEvaluator{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	_, err := q.Evaluate(context.Background(), request("late"))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Evaluate after shutdown: want=ErrClosed got=%v", err)
	}
}
