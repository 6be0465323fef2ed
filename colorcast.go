// Package colorcast connects to a Home Assistant instance, extracts
// dominant colors from images referenced in service calls, and applies
// them to light entities.
package colorcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/gorilla/websocket"

	"github.com/luminaide/colorcast/internal/connect"
	"github.com/luminaide/colorcast/internal/fetch"
	"github.com/luminaide/colorcast/internal/services"
	"github.com/luminaide/colorcast/types"
)

var ErrInvalidArgs = errors.New("invalid arguments provided")

// Domain and service under which the built-in color service is registered.
const (
	Domain        = "color_extractor"
	ServiceTurnOn = "turn_on"
)

// ServiceCall is a service invocation observed on the Home Assistant
// event bus.
type ServiceCall struct {
	Domain  string
	Service string
	Data    map[string]any
}

// ServiceHandler handles a single service call. A returned error means
// the call was rejected before any work was done; it is logged, not
// surfaced to the bus.
type ServiceHandler func(ctx context.Context, call ServiceCall) error

type serviceKey struct {
	domain  string
	service string
}

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	// Wraps the ws connection with added mutex locking
	conn *connect.HAConnection

	fetcher imageGetter
	light   lightCaller
	results *connect.Results

	allow AllowLists
	home  HomeLocation

	handlers map[serviceKey]ServiceHandler
	syncJobs *queue.PriorityQueue
}

type Item types.Item

func (i Item) Compare(other queue.Item) int {
	if i.Priority > other.(Item).Priority {
		return 1
	} else if i.Priority == other.(Item).Priority {
		return 0
	}
	return -1
}

// NewApp establishes the WebSocket connection and returns an object you
// can use to register service handlers and sync jobs. The built-in
// color_extractor.turn_on handler is registered automatically.
func NewApp(cfg Config) (*App, error) {
	if cfg.URL == "" || cfg.Token == "" {
		slog.Error("URL and Token are required config values")
		return nil, ErrInvalidArgs
	}

	baseURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conn, ctx, ctxCancel, err := connect.ConnectionFromUri(baseURL, cfg.Token)
	if err != nil {
		return nil, err
	}

	results := connect.NewResults()

	app := &App{
		ctx:       ctx,
		ctxCancel: ctxCancel,
		conn:      conn,
		fetcher:   fetch.NewFetcher(ctx),
		light:     services.NewLight(conn, results),
		results:   results,
		allow:     cfg.Allow,
		home:      cfg.Home,
		handlers:  map[serviceKey]ServiceHandler{},
		syncJobs:  queue.NewPriorityQueue(16, false),
	}

	app.RegisterService(Domain, ServiceTurnOn, app.handleTurnOn)

	return app, nil
}

// RegisterService maps a (domain, service) pair to a handler. Service
// calls observed on the bus for that pair are routed to the handler.
// Registering the same pair twice replaces the previous handler.
func (app *App) RegisterService(domain, service string, handler ServiceHandler) {
	app.handlers[serviceKey{domain: domain, service: service}] = handler
}

func (app *App) Cleanup() {
	if app.ctxCancel != nil {
		app.ctxCancel()
	}
}

// Close performs a clean shutdown of the application. It closes the
// WebSocket connection and cancels the context so background goroutines
// terminate.
func (app *App) Close() error {
	if app.conn != nil {
		deadline := time.Now().Add(10 * time.Second)
		err := app.conn.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		if err != nil {
			slog.Warn("Error writing close message", "error", err)
			return err
		}

		err = app.conn.Conn.Close()
		if err != nil {
			slog.Warn("Error closing WebSocket connection", "error", err)
			return err
		}
	}

	if app.ctxCancel != nil {
		app.ctxCancel()
	}

	return nil
}

// Start subscribes to call_service events and runs the main loop,
// routing results to awaiting callers and service calls to registered
// handlers. Blocks until the connection drops or the context ends.
func (app *App) Start() {
	slog.Info("Starting", "handlers", len(app.handlers), "sync jobs", app.syncJobs.Len())

	go runSyncJobs(app)

	if err := connect.SubscribeToEventType("call_service", app.conn); err != nil {
		slog.Error("Failed to subscribe to call_service events", "error", err)
		app.Cleanup()
		return
	}

	msgChan := make(chan connect.ChannelMessage, 100)
	go connect.ListenWebsocket(app.conn.Conn, msgChan)

	app.run(msgChan)
}

// run is the main loop. When the websocket channel closes it cancels the
// app context so background goroutines (the sync-job runner in
// particular) stop instead of firing against a dead connection.
func (app *App) run(msgChan chan connect.ChannelMessage) {
	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				slog.Info("WebSocket channel closed, stopping main loop")
				app.Cleanup()
				return
			}
			if app.results.Resolve(msg) {
				continue
			}
			if msg.Type == "event" {
				go app.routeServiceCall(msg.Raw)
			}
		case <-app.ctx.Done():
			slog.Info("Context cancelled, stopping main loop")
			return
		}
	}
}

// busEvent is the envelope of a call_service event bus message.
type busEvent struct {
	Event struct {
		EventType string `json:"event_type"`
		Data      struct {
			Domain      string         `json:"domain"`
			Service     string         `json:"service"`
			ServiceData map[string]any `json:"service_data"`
		} `json:"data"`
	} `json:"event"`
}

func (app *App) routeServiceCall(raw []byte) {
	var ev busEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.Error("Error unmarshalling event", "err", err, "message", string(raw))
		return
	}
	if ev.Event.EventType != "call_service" {
		return
	}

	handler, ok := app.handlers[serviceKey{domain: ev.Event.Data.Domain, service: ev.Event.Data.Service}]
	if !ok {
		return
	}

	call := ServiceCall{
		Domain:  ev.Event.Data.Domain,
		Service: ev.Event.Data.Service,
		Data:    ev.Event.Data.ServiceData,
	}

	if err := handler(app.ctx, call); err != nil {
		slog.Warn("Service handler rejected call",
			"domain", call.Domain,
			"service", call.Service,
			"error", err)
	}
}
