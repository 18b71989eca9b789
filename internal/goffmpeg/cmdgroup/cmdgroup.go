// Package cmdgroup runs and terminate commands as a group. Similar to errgroup.
package cmdgroup

import (
	"context"
	"sync"
)

// Cmd somthing that can start and wait to finish, like exec.Cmd.
// Must respect group context.
type Cmd interface {
	Start() error
	Wait() error
}

// Func adapts a function to a Cmd. When added to a group the function runs
// in its own goroutine between Start and Wait.
type Func func() error

// Start and Wait only make Func a Cmd, Add replaces it with a funcCmd
func (fn Func) Start() error { return nil }
func (fn Func) Wait() error  { return fn() }

type funcCmd struct {
	fn    Func
	errCh chan error
}

func (f *funcCmd) Start() error {
	f.errCh = make(chan error, 1)
	go func() { f.errCh <- f.fn() }()
	return nil
}

func (f *funcCmd) Wait() error { return <-f.errCh }

// Group of commands that runs and terminate as a group. Similar to errgroup.
type Group struct {
	cancelFn func()
	cmds     []Cmd
}

// WithContext creates a new command group
func WithContext(parentCtx context.Context) (*Group, context.Context) {
	ctx, cancelFn := context.WithCancel(parentCtx)
	return &Group{cancelFn: cancelFn}, ctx
}

// Add cmd to group
func (g *Group) Add(cmd Cmd) {
	if fn, ok := cmd.(Func); ok {
		cmd = &funcCmd{fn: fn}
	}
	g.cmds = append(g.cmds, cmd)
}

// Run commands in group plus commands given as argument. Returns errors in
// the order they happened, the first one is usually the cause.
func (g *Group) Run(cmds ...Cmd) []error {
	var cancelOnce sync.Once
	defer cancelOnce.Do(g.cancelFn)

	for _, cmd := range cmds {
		g.Add(cmd)
	}

	var errs []error
	var started []Cmd
	for _, cmd := range g.cmds {
		if err := cmd.Start(); err != nil {
			errs = append(errs, err)
			cancelOnce.Do(g.cancelFn)
			continue
		}
		started = append(started, cmd)
	}

	waitErrCh := make(chan error)
	for _, cmd := range started {
		go func(cmd Cmd) {
			waitErrCh <- cmd.Wait()
		}(cmd)
	}
	// there will be len(started) errors
	for range started {
		if err := <-waitErrCh; err != nil {
			errs = append(errs, err)
			cancelOnce.Do(g.cancelFn)
		}
	}

	return errs
}
