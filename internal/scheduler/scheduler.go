package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// BatchProcessor runs one maintenance tick: queueing due messages,
// garbage collection and verification purging.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) error
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool
	InTick    bool
	Ticks     int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

// SchedulerService is the control surface of the maintenance scheduler.
// Start and Stop toggle whether interval ticks are processed; RunNow
// triggers a single tick regardless of that.
type SchedulerService interface {
	Start() error
	Stop() error
	RunNow() error
	IsRunning() bool
	Status() (Status, error)
}

// ErrBusy is returned by RunNow while a tick is in flight.
var ErrBusy = errors.New("a maintenance tick is already running")

// DefaultInterval is used when no custom interval is provided.
const DefaultInterval = 2 * time.Minute

// DefaultBatchTimeout bounds a single tick.
const DefaultBatchTimeout = 30 * time.Second

// controlTimeout is how long a caller waits for the control loop to take
// a command.
const controlTimeout = 2 * time.Second

type controlOp int

const (
	opStart controlOp = iota
	opStop
	opRunNow
	opStatus
)

func (op controlOp) String() string {
	switch op {
	case opStart:
		return "Start"
	case opStop:
		return "Stop"
	case opRunNow:
		return "RunNow"
	default:
		return "Status"
	}
}

type reply struct {
	status Status
	err    error
}

// controlMsg is sent over the ctrl channel. resp is buffered so the loop
// never blocks on a caller that gave up waiting.
type controlMsg struct {
	op   controlOp
	resp chan reply
}

// schedulerService keeps all mutable state inside the loop goroutine.
// Ticks run on their own goroutine and report back over a channel, so
// commands are served while a tick is in flight.
type schedulerService struct {
	processor    BatchProcessor
	interval     time.Duration
	batchTimeout time.Duration
	ctrl         chan controlMsg
}

// NewSchedulerService creates a stopped scheduler. Values <= 0 fall back
// to DefaultInterval and DefaultBatchTimeout.
func NewSchedulerService(
	processor BatchProcessor,
	interval time.Duration,
	batchTimeout time.Duration,
) SchedulerService {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}

	s := &schedulerService{
		processor:    processor,
		interval:     interval,
		batchTimeout: batchTimeout,
		ctrl:         make(chan controlMsg),
	}

	// The control loop lives for the lifetime of the process.
	go s.loop()

	return s
}

func (s *schedulerService) send(op controlOp, wait time.Duration) (Status, error) {
	msg := controlMsg{op: op, resp: make(chan reply, 1)}

	select {
	case s.ctrl <- msg:
	case <-time.After(controlTimeout):
		return Status{}, fmt.Errorf("[Scheduler] %s: control loop not responding", op)
	}

	select {
	case r := <-msg.resp:
		return r.status, r.err
	case <-time.After(wait):
		return Status{}, fmt.Errorf("[Scheduler] %s: acknowledgement timeout", op)
	}
}

// Start makes the scheduler process interval ticks.
func (s *schedulerService) Start() error {
	_, err := s.send(opStart, controlTimeout)
	return err
}

// Stop stops processing interval ticks. A tick in flight is waited for;
// it cannot outlive the batch timeout.
func (s *schedulerService) Stop() error {
	_, err := s.send(opStop, s.batchTimeout+controlTimeout)
	return err
}

// RunNow starts a tick immediately without waiting for it to finish.
func (s *schedulerService) RunNow() error {
	_, err := s.send(opRunNow, controlTimeout)
	return err
}

// IsRunning reports whether interval ticks are being processed. It does
// not mean a tick is executing right now.
func (s *schedulerService) IsRunning() bool {
	st, err := s.send(opStatus, controlTimeout)
	return err == nil && st.Running
}

// Status returns a snapshot of the scheduler.
func (s *schedulerService) Status() (Status, error) {
	return s.send(opStatus, controlTimeout)
}

// runTick executes one bounded tick and reports its error on done.
func (s *schedulerService) runTick(done chan<- error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)
	defer cancel()
	done <- s.processor.ProcessBatch(ctx)
}

func (s *schedulerService) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var (
		st Status
		// done is non-nil while a tick is in flight.
		done        chan error
		pendingStop []chan reply
	)

	startTick := func(reason string) {
		log.Printf("[Scheduler] Running maintenance tick (%s)...", reason)
		st.InTick = true
		done = make(chan error, 1)
		go s.runTick(done)
	}

	for {
		select {
		case msg := <-s.ctrl:
			switch msg.op {
			case opStart:
				if !st.Running {
					log.Printf("[Scheduler] Started (interval=%s, batchTimeout=%s)", s.interval, s.batchTimeout)
				}
				st.Running = true
				msg.resp <- reply{status: st}

			case opStop:
				if st.Running {
					log.Println("[Scheduler] Stop requested.")
				}
				st.Running = false
				if st.InTick {
					// Answer once the tick in flight completes.
					pendingStop = append(pendingStop, msg.resp)
					continue
				}
				msg.resp <- reply{status: st}

			case opRunNow:
				if st.InTick {
					msg.resp <- reply{status: st, err: ErrBusy}
					continue
				}
				startTick("manual")
				msg.resp <- reply{status: st}

			case opStatus:
				msg.resp <- reply{status: st}
			}

		case <-ticker.C:
			if st.Running && !st.InTick {
				startTick("interval")
			}

		case err := <-done:
			done = nil
			st.InTick = false
			st.Ticks++
			st.LastRun = time.Now()
			if err != nil {
				st.Failures++
				st.LastError = err.Error()
				log.Printf("[Scheduler] Maintenance tick failed: %v", err)
			} else {
				st.LastError = ""
				log.Println("[Scheduler] Maintenance tick completed.")
			}

			for _, resp := range pendingStop {
				resp <- reply{status: st}
			}
			if len(pendingStop) > 0 {
				log.Println("[Scheduler] Stopped after the tick in flight.")
			}
			pendingStop = nil
		}
	}
}
