// Package framework runs the periodic control cycle of the car.
//
// A Loop calls its Controllers once per cycle, ordered by priority level:
// sensing first, then line tracking, control, actuation and reporting.
// Background Runnables (serial readers, telemetry connections) feed the
// cycle by posting Messages, which are collected when a cycle starts.
package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted into the loop, e.g. a decoded sensor frame.
type Message interface{}

// Controller defines the abstract controlling logic.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current control cycle.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Cycle gets the sequence number of the cycle, starting from 1.
	Cycle() uint64
	// Elapsed gets the time since the previous cycle, 0 for the first one.
	Elapsed() time.Duration
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Messages retrieves all messages collected when
	// this cycle starts.
	Messages() MessageStore
	// PostRun injects post-run one-shot hooks at current
	// priority level. If called in post-run hooks, new hooks
	// are installed for next cycle.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense decodes sensor frames and odometry.
	PrLvSense = PrLvHigh
	// PrLvTrack updates the line tracker and the trajectory.
	PrLvTrack = PrLvHigh + 2
	// PrLvControl runs the steering and speed controllers.
	PrLvControl = PrLvNormal
	// PrLvActuate writes the commands to the actuators.
	PrLvActuate = PrLvLow
	// PrLvReport publishes telemetry.
	PrLvReport = PrLvIdle - 1
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PreRunAt injects one-shot pre-run controller hooks at
	// specified priority level.
	PreRunAt(priorityLevel int, controllers ...Controller)
	// PostRunAt injects one-shot post-run controller hooks at
	// specified priority level.
	PostRunAt(priorityLevel int, controllers ...Controller)
	// PostMessage enqueues the message for the next cycle.
	PostMessage(Message)
	// TriggerNext schedules the next cycle to be executed
	// immediately after the current one.
	TriggerNext()
}

// MessageStore provides read/write access to a list of messages.
type MessageStore interface {
	// ProcessMessages uses a processor to process all messages.
	ProcessMessages(MessageProcessor)

	MessageAppender
}

// MessageAppender appends message to store.
type MessageAppender interface {
	// AddMessages appends messages to the store for the following
	// controllers of the same cycle.
	AddMessages(msgs ...Message)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for current message.
type MessageProcessingContext interface {
	// CurrentMessage gets the current message being processed.
	CurrentMessage() Message
	// MessageTaken indicates the message has been processed and
	// should be removed from store.
	MessageTaken()
	// StopProcessing indicates no need to examine further messages.
	StopProcessing()

	MessageAppender
}

// Take removes all messages of type T from the store and returns them in
// posting order.
func Take[T Message](store MessageStore) []T {
	var taken []T
	store.ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
		if msg, ok := mc.CurrentMessage().(T); ok {
			taken = append(taken, msg)
			mc.MessageTaken()
		}
	}))
	return taken
}

// TakeLast is Take keeping only the most recent message.
func TakeLast[T Message](store MessageStore) (last T, ok bool) {
	if msgs := Take[T](store); len(msgs) > 0 {
		return msgs[len(msgs)-1], true
	}
	return
}
