package live

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"hotdogbench/internal/runlog"
)

// Controller bridges runner observer callbacks into the live UI. Events are
// forwarded over a buffered channel and dropped when the UI cannot keep up,
// so the benchmark loop is never blocked by rendering.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan error
	closeOnce sync.Once
}

// NewController starts a live UI program writing to out.
func NewController(out io.Writer, opts Options) *Controller {
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan error, 1),
	}
	go func() {
		_, err := program.Run()
		controller.done <- err
	}()
	return controller
}

// OnRunStart implements the runner observer.
func (c *Controller) OnRunStart(meta runlog.RunMeta) {
	c.send(Event{Kind: EventRunStart, Meta: meta})
}

// OnImageStart implements the runner observer.
func (c *Controller) OnImageStart(runID string, index int, entry runlog.QueueEntry) {
	c.send(Event{Kind: EventImageStart, Index: index, Entry: entry})
}

// OnPrediction implements the runner observer.
func (c *Controller) OnPrediction(meta runlog.RunMeta, pred runlog.Prediction) {
	c.send(Event{Kind: EventPrediction, Meta: meta, Prediction: pred})
}

// OnRunEnd implements the runner observer.
func (c *Controller) OnRunEnd(meta runlog.RunMeta) {
	c.send(Event{Kind: EventRunEnd, Meta: meta})
	c.Close()
}

// Close stops feeding events, which lets the UI program exit.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.events) })
}

// Wait blocks until the UI program has finished rendering.
func (c *Controller) Wait() error {
	err := <-c.done
	if err != nil {
		return fmt.Errorf("live ui: %w", err)
	}
	return nil
}

func (c *Controller) send(event Event) {
	defer func() {
		// Sending after Close races with run teardown; dropping is fine.
		_ = recover()
	}()
	select {
	case c.events <- event:
	default:
	}
}
