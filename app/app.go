// Package app manages the process lifecycle: component construction from
// configuration, the background sweep schedule, servers and graceful
// shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/authguard/log"
)

var (
	ErrAlreadyStarted = errors.New("application already started")
	ErrClosePanic     = errors.New("close function panicked")
)

// Server is anything the application can run and shut down.
type Server interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// CloseFunc is a named shutdown step with its own timeout.
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

// Application runs servers until a shutdown signal arrives, then executes
// the registered close functions.
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	signals         []os.Signal
	servers         []Server
	closeFuncs      []CloseFunc
	closeTimeout    time.Duration
	mu              sync.RWMutex
	started         bool
}

type Option func(*Application)

// WithContext sets the application's root context.
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout sets the server shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout sets the default timeout for close functions.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

// WithSignals sets the signals that trigger graceful shutdown.
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = make([]os.Signal, len(signals))
			copy(app.signals, signals)
		}
	}
}

// WithServer adds a server to the application.
func WithServer(server Server) Option {
	return func(app *Application) {
		if server != nil {
			app.servers = append(app.servers, server)
		}
	}
}

// WithClose adds a close function executed during shutdown.
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			log.Warnf("nil close function ignored: %s", name)
			return
		}
		if timeout == 0 {
			timeout = app.closeTimeout
		}
		app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	}
}

// New creates an application with the given options.
func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}
	return app
}

// RegisterClose adds a close function after construction.
func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return errors.New("close function cannot be nil")
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if timeout == 0 {
		timeout = app.closeTimeout
	}
	app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	return nil
}

// Start runs all servers and blocks until shutdown.
func (app *Application) Start() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := make([]Server, len(app.servers))
	copy(servers, app.servers)
	signals := make([]os.Signal, len(app.signals))
	copy(signals, app.signals)
	app.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	eg, egCtx := errgroup.WithContext(app.ctx)

	for _, server := range servers {
		server := server
		eg.Go(func() error {
			if err := server.Run(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})

		eg.Go(func() error {
			<-egCtx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Infof("received shutdown signal: %s", sig)
			app.cancel()
			return nil
		case <-egCtx.Done():
			if egCtx.Err() == context.Canceled {
				return nil
			}
			return egCtx.Err()
		}
	})

	err := eg.Wait()
	if err != nil && err != context.Canceled {
		return err
	}

	app.runCloseTasks()
	return nil
}

// Stop triggers graceful shutdown.
func (app *Application) Stop() {
	app.cancel()
}

// runCloseTasks executes all close functions concurrently.
func (app *Application) runCloseTasks() {
	app.mu.RLock()
	closeFuncs := make([]CloseFunc, len(app.closeFuncs))
	copy(closeFuncs, app.closeFuncs)
	app.mu.RUnlock()

	if len(closeFuncs) == 0 {
		return
	}

	eg := &errgroup.Group{}
	for _, cf := range closeFuncs {
		cf := cf
		eg.Go(func() error {
			return app.runCloseTask(cf)
		})
	}

	if err := eg.Wait(); err != nil {
		log.Errorf("some close functions failed: %v", err)
	}
}

// runCloseTask executes one close function under its timeout.
func (app *Application) runCloseTask(cf CloseFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), cf.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("close function %s panicked: %v", cf.Name, r)
				done <- ErrClosePanic
			}
		}()
		done <- cf.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Errorf("close function %s failed: %v", cf.Name, err)
		}
		return err
	case <-ctx.Done():
		log.Warnf("close function %s timed out", cf.Name)
		return ctx.Err()
	}
}
