// Package jobmgr runs the long-lived background loops of a process (monitor,
// autosave, HTTP server) under one parent context and tracks them by name.
//
//	jm := jobmgr.NewManager(ctx, logger)
//	_ = jm.StartAsync("monitor", mon.Run)
//	...
//	jm.StopAll()
//	err := jm.Wait()
//
// StopAll is final: jobs started after it get an already cancelled context.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is safe for concurrent use.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
	wg     sync.WaitGroup
	mu     sync.Mutex
	jobs   map[string]*job
	errs   []error
}

// NewManager derives every job context from parent.
func NewManager(parent context.Context, log zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		jobs:   make(map[string]*job),
	}
}

// StartSync runs a job in the calling goroutine.
func (m *Manager) StartSync(name string, runner func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(m.ctx)
	defer cancel()
	if err := runner(ctx); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

// StartAsync runs a job in its own goroutine. A job that ends with an error
// other than context cancellation is reported by Wait.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job %q is already running", name)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.log.Debug().Str("job", name).Msg("running")
		err := runner(ctx)

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			m.errs = append(m.errs, fmt.Errorf("job %s: %w", name, err))
		}
		m.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		m.log.Debug().Str("job", name).Msg("done")
	}()
	return nil
}

// Stop cancels a job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not running", name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job, running or started later, without waiting.
func (m *Manager) StopAll() {
	m.cancel()
}

// Wait blocks until every started job has returned and joins their errors.
func (m *Manager) Wait() error {
	m.wg.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}

// List returns the running job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}
