// Package command routes named control messages to handlers. Both the
// HTTP surface and the MCP tools funnel through the same router, so a
// command behaves identically no matter which transport carried it.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Handler is a transport-agnostic command function: bytes in, bytes out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// ErrUnknownCommand is returned for command names nothing registered.
// Unknown names fail loudly so a misspelled caller notices.
type ErrUnknownCommand struct {
	Name string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("command: unknown command %q", e.Name)
}

// Router dispatches commands by name. Thread-safe.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger for the router.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	r := &Router{
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register binds a handler to a command name, replacing any previous one.
func (r *Router) Register(name string, h Handler) {
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

// Dispatch runs the handler for name, or fails with ErrUnknownCommand.
func (r *Router) Dispatch(ctx context.Context, name string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.DebugContext(ctx, "command: unknown", "name", name)
		return nil, &ErrUnknownCommand{Name: name}
	}

	r.logger.DebugContext(ctx, "command: dispatch", "name", name)
	return h(ctx, payload)
}

// Names returns the registered command names.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	return names
}

// ScanController is the slice of the inspector the scan commands need.
type ScanController interface {
	// Toggle flips scanning on or off and reports the resulting state.
	Toggle(ctx context.Context) (bool, error)
	// Scanning reports whether scanning is currently active.
	Scanning() bool
}

// PingResponse answers the liveness command.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// ToggleResponse answers toggleScan.
type ToggleResponse struct {
	Success    bool `json:"success"`
	IsScanning bool `json:"isScanning"`
}

// StatusResponse answers getScanStatus.
type StatusResponse struct {
	IsScanning bool `json:"isScanning"`
}

// RegisterScanCommands wires the standard control commands onto r.
func RegisterScanCommands(r *Router, sc ScanController) {
	r.Register("ping", func(ctx context.Context, _ []byte) ([]byte, error) {
		return json.Marshal(PingResponse{Pong: true})
	})

	r.Register("toggleScan", func(ctx context.Context, _ []byte) ([]byte, error) {
		scanning, err := sc.Toggle(ctx)
		if err != nil {
			return nil, fmt.Errorf("command: toggle scan: %w", err)
		}
		return json.Marshal(ToggleResponse{Success: true, IsScanning: scanning})
	})

	r.Register("getScanStatus", func(ctx context.Context, _ []byte) ([]byte, error) {
		return json.Marshal(StatusResponse{IsScanning: sc.Scanning()})
	})
}
