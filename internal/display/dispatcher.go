package display

import (
	"sync"

	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
)

// Dispatcher applies updates to a Display on its own goroutine, in the
// order they were sent. It implements interpreter.Sink.
type Dispatcher struct {
	display Display
	updates chan []interpreter.DisplayEntry
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewDispatcher configures d with labels and starts delivering updates.
// buffer is the number of updates that may queue before Update blocks.
func NewDispatcher(d Display, labels []string, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}

	dp := &Dispatcher{
		display: d,
		updates: make(chan []interpreter.DisplayEntry, buffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	labels = append([]string(nil), labels...)
	go dp.run(labels)
	return dp
}

func (dp *Dispatcher) run(labels []string) {
	defer close(dp.done)

	dp.display.Configure(labels)

	for {
		select {
		case <-dp.quit:
			return
		case entries := <-dp.updates:
			dp.display.Update(entries)
		}
	}
}

// Update queues entries for the display. After Close it is a no-op.
func (dp *Dispatcher) Update(entries []interpreter.DisplayEntry) {
	select {
	case <-dp.quit:
		return
	default:
	}

	select {
	case dp.updates <- entries:
	case <-dp.quit:
	}
}

// Close stops the dispatcher and waits for the update in progress
func (dp *Dispatcher) Close() {
	dp.once.Do(func() {
		close(dp.quit)
	})
	<-dp.done
}
