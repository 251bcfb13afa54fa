package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/log"
	"github.com/ayusman/gesturehull/internal/store"
)

// ActionSource lists the actions bound to a shape.
type ActionSource interface {
	ListEnabledByShape(shape gesture.Shape) ([]*store.Action, error)
}

// Outcome is the result of running one bound action.
type Outcome struct {
	ActionID string
	Plugin   string
	Action   string
	Response *Response
	Err      error
}

// DefaultQueueSize is how many shape changes may wait for the worker before
// new ones are dropped.
const DefaultQueueSize = 64

type queued struct {
	ctx context.Context
	ev  gesture.Event
}

// Dispatcher runs the plugin actions bound to each stable shape change.
// Changes queued with Go run one at a time, in the order they were queued.
type Dispatcher struct {
	actions  ActionSource
	manager  *Manager
	executor *Executor

	mu      sync.Mutex
	queue   chan queued
	done    chan struct{}
	size    int
	dropped int
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(actions ActionSource, manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{
		actions:  actions,
		manager:  manager,
		executor: executor,
		size:     DefaultQueueSize,
	}
}

// Dispatch runs every enabled action bound to ev.Shape in order and returns
// their outcomes. Unknown shapes run nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, ev gesture.Event) ([]Outcome, error) {
	if ev.Shape == gesture.Unknown {
		return nil, nil
	}

	actions, err := d.actions.ListEnabledByShape(ev.Shape)
	if err != nil {
		return nil, fmt.Errorf("list actions for %s: %w", ev.Shape, err)
	}

	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		o := d.run(ctx, ev, a)
		if o.Err != nil {
			log.Warn("plugin action failed", "shape", ev.Shape, "plugin", o.Plugin, "action", o.Action, "error", o.Err)
		} else {
			log.Info("plugin action executed", "shape", ev.Shape, "plugin", o.Plugin, "action", o.Action,
				"success", o.Response.Success)
		}

		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Go queues ev for the worker goroutine, starting it if needed. When the
// queue is full ev is dropped with a warning.
func (d *Dispatcher) Go(ctx context.Context, ev gesture.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queue == nil {
		d.queue = make(chan queued, d.size)
		d.done = make(chan struct{})
		go d.work(d.queue, d.done)
	}

	select {
	case d.queue <- queued{ctx: ctx, ev: ev}:
	default:
		d.dropped++
		log.Warn("plugin queue full, dropping shape change", "shape", ev.Shape, "frame", ev.Frame,
			"dropped", d.dropped)
	}
}

// Wait runs every queued change to completion and stops the worker. A later
// Go starts a new one.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	queue, done := d.queue, d.done
	d.queue, d.done = nil, nil
	d.mu.Unlock()

	if queue == nil {
		return
	}
	close(queue)
	<-done
}

// Dropped returns how many changes Go has dropped on a full queue.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) work(queue <-chan queued, done chan<- struct{}) {
	defer close(done)
	for q := range queue {
		if _, err := d.Dispatch(q.ctx, q.ev); err != nil {
			log.Error("dispatch failed", "shape", q.ev.Shape, "error", err)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, ev gesture.Event, a *store.Action) Outcome {
	o := Outcome{ActionID: a.ID, Plugin: a.PluginName, Action: a.ActionName}

	p, err := d.manager.Get(a.PluginName)
	if err != nil {
		o.Err = fmt.Errorf("%s: %w", a.PluginName, err)
		return o
	}
	if !p.Manifest.HasAction(a.ActionName) {
		o.Err = fmt.Errorf("plugin %s has no action %q", a.PluginName, a.ActionName)
		return o
	}

	params, err := json.Marshal(map[string]any{
		"previous":  ev.Previous,
		"timestamp": ev.Time,
	})
	if err != nil {
		o.Err = err
		return o
	}

	req := &Request{
		Action:   a.ActionName,
		Shape:    string(ev.Shape),
		Label:    ev.Label,
		HullArea: ev.Area,
		Frame:    ev.Frame,
		Config:   a.Config,
		Params:   params,
	}

	o.Response, o.Err = d.executor.Execute(ctx, p, req)
	return o
}
