package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the control cycle period.
const DefaultInterval = 10 * time.Millisecond

// Loop runs controllers periodically.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels]controllerList
	runners     []Runnable

	messages messageList
	lock     sync.Mutex

	cycle    uint64
	lastTime time.Time
	overruns uint64

	wakeUpOnce sync.Once
	wakeUpCh   chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// LoopAdderFunc is the func form of LoopAdder.
type LoopAdderFunc func(*Loop)

// AddToLoop implements LoopAdder.
func (f LoopAdderFunc) AddToLoop(l *Loop) {
	f(l)
}

type loopCtlKey struct{}

// LoopControlFrom gets the LoopControl of the Loop running the Runnable
// from its context. It returns nil outside a Loop.
func LoopControlFrom(ctx context.Context) LoopControl {
	ctl, _ := ctx.Value(loopCtlKey{}).(LoopControl)
	return ctl
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop. Controllers which are
// also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.controllers[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Cycle gets the number of completed cycles.
func (l *Loop) Cycle() uint64 {
	return l.cycle
}

// Overruns gets the number of cycles which took longer than Interval.
func (l *Loop) Overruns() uint64 {
	return l.overruns
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	ctx = context.WithValue(ctx, loopCtlKey{}, LoopControl(l))
	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	glog.Infof("control loop started, interval %v", interval)
	for {
		select {
		case <-ctx.Done():
			glog.Infof("control loop stopped after %d cycles, %d overruns", l.cycle, l.overruns)
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUp():
		}
		start := time.Now()
		l.Step(ctx, start)
		if took := time.Since(start); took > interval {
			l.overruns++
			glog.Warningf("cycle %d overrun: %v", l.cycle, took)
		}
	}
}

// Step runs a single cycle at the given time. It is used by Run and
// directly by simulations driving their own clock.
func (l *Loop) Step(ctx context.Context, now time.Time) {
	l.cycle++
	iter := &loopIteration{Loop: l, time: now, cycle: l.cycle}
	if !l.lastTime.IsZero() {
		iter.elapsed = now.Sub(l.lastTime)
	}
	l.lastTime = now
	l.lock.Lock()
	iter.messages.splice(&l.messages)
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtlKey{}, LoopControl(l))
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		l.controllers[i].run(iter)
	}
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	lst := &l.controllers[priorityLevel]
	lst.lock.Lock()
	lst.preHooks = append(lst.preHooks, hooks...)
	lst.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lst := &l.controllers[priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

func (l *Loop) wakeUp() chan struct{} {
	l.wakeUpOnce.Do(func() {
		l.wakeUpCh = make(chan struct{}, 1)
	})
	return l.wakeUpCh
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	cycle         uint64
	elapsed       time.Duration
	priorityLevel int
	messages      messageList
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Cycle() uint64 {
	return t.cycle
}

func (t *loopIteration) Elapsed() time.Duration {
	return t.elapsed
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

func (t *loopIteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

type controllerList struct {
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
	lock        sync.Mutex
}

func (c *controllerList) run(iter *loopIteration) {
	c.lock.Lock()
	ctls := c.preHooks
	c.preHooks = nil
	c.lock.Unlock()
	runControllers(iter, ctls)
	runControllers(iter, c.controllers)
	c.lock.Lock()
	ctls, c.postHooks = c.postHooks, nil
	c.lock.Unlock()
	runControllers(iter, ctls)
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("cycle %d level %d: controller error: %v", iter.cycle, iter.priorityLevel, err)
		}
	}
}
