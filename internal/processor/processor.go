package processor

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
)

// Processor owns the metric tables and the goroutine allowed to touch them.
type Processor struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool

	done      chan struct{}
	closeOnce sync.Once
	workerID  uint64

	logger        *slog.Logger
	clock         clock.Clock
	windowSize    int
	reservoirSize int

	data collection
}

// Option configures a Processor constructed by New.
type Option func(*Processor)

// WithLogger sets the logger used for lifecycle events and task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithClock sets the clock meters and timers measure their lifetime against.
func WithClock(clk clock.Clock) Option {
	return func(p *Processor) { p.clock = clk }
}

// WithWindowSize sets the sample count of sliding-window timers.
func WithWindowSize(size int) Option {
	return func(p *Processor) { p.windowSize = size }
}

// WithReservoirSize sets the sample count of uniform-reservoir timers.
func WithReservoirSize(size int) Option {
	return func(p *Processor) { p.reservoirSize = size }
}

// New starts a processor and its worker goroutine.
func New(opts ...Option) *Processor {
	p := &Processor{
		done:          make(chan struct{}),
		logger:        slog.Default(),
		clock:         clock.New(),
		windowSize:    histogram.DefaultWindowSize,
		reservoirSize: histogram.DefaultReservoirSize,
		data:          newCollection(),
	}
	p.cond = sync.NewCond(&p.mutex)

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	ready := make(chan struct{})
	go p.run(ready)
	<-ready

	return p
}

func (p *Processor) run(ready chan<- struct{}) {
	p.workerID = goroutineID()
	close(ready)

	p.logger.Info("Processor started")
	defer p.logger.Info("Processor stopped")
	defer close(p.done)

	for {
		batch := p.take()
		if len(batch) == 0 {
			return
		}
		for i, task := range batch {
			batch[i] = nil
			task()
		}
	}
}

// take blocks until tasks are queued or the processor is closed. An empty
// result means closed and drained.
func (p *Processor) take() []func() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for len(p.tasks) == 0 && !p.closed {
		p.cond.Wait()
	}

	batch := p.tasks
	p.tasks = nil
	return batch
}

func (p *Processor) enqueue(task func()) {
	if !p.tryEnqueue(task) {
		panic("processor: post after Close")
	}
}

// tryEnqueue queues task unless Close has begun.
func (p *Processor) tryEnqueue(task func()) bool {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return false
	}
	p.tasks = append(p.tasks, task)
	p.mutex.Unlock()

	p.cond.Signal()
	return true
}

// Execute schedules fn on the worker without waiting for it.
func (p *Processor) Execute(fn func()) {
	p.enqueue(func() {
		defer p.recoverTask(nil)
		fn()
	})
}

func (p *Processor) recoverTask(onPanic func(any)) {
	r := recover()
	if r == nil {
		return
	}

	p.logger.Error("Task panicked", slog.Any("panic", r))
	if onPanic != nil {
		onPanic(r)
	}
}

// Close drains the queue and waits for the worker to exit. Calling it again
// only waits. Close must not be called from a task.
func (p *Processor) Close() {
	if p.OnWorker() {
		panic("processor: Close called from the worker goroutine")
	}

	p.closeOnce.Do(func() {
		p.mutex.Lock()
		p.closed = true
		p.mutex.Unlock()
		p.cond.Broadcast()
	})

	<-p.done
}

// Done is closed once the worker has exited.
func (p *Processor) Done() <-chan struct{} {
	return p.done
}

// OnWorker reports whether the caller runs on the worker goroutine.
func (p *Processor) OnWorker() bool {
	return goroutineID() == p.workerID
}

func (p *Processor) mustOnWorker(op string) {
	if !p.OnWorker() {
		panic(fmt.Sprintf("processor: %s called outside the worker goroutine", op))
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine id from the stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	field := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}

	id, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("processor: cannot parse goroutine id: %v", err))
	}
	return id
}
