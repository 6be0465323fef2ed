package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luminaide/colorcast/internal"
)

var ErrInvalidToken = errors.New("invalid authentication token")

// HAConnection is a wrapper around a WebSocket connection that provides a mutex for thread safety.
type HAConnection struct {
	Conn  *websocket.Conn // Note: this is not thread safe except for Close() and WriteControl()
	mutex sync.Mutex
}

// WriteMessage writes a message to the WebSocket connection.
func (w *HAConnection) WriteMessage(msg any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.Conn.WriteJSON(msg)
}

// ReadMessageRaw reads a raw message from the WebSocket connection.
func ReadMessageRaw(conn *websocket.Conn) ([]byte, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ReadMessage reads a message from the WebSocket connection and unmarshals it into the given type.
func ReadMessage[T any](conn *websocket.Conn) (T, error) {
	var result T
	msg, err := ReadMessageRaw(conn)
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(msg, &result)
	if err != nil {
		return result, err
	}

	return result, nil
}

// ConnectionFromUri creates a new WebSocket connection from the given base URL and
// authentication token, completing the Home Assistant auth handshake.
func ConnectionFromUri(baseUrl *url.URL, token string) (*HAConnection, context.Context, context.CancelFunc, error) {
	// Build the WebSocket URL
	urlWebsockets := *baseUrl
	urlWebsockets.Path = "/api/websocket"
	scheme, err := internal.GetEquivalentWebsocketScheme(baseUrl.Scheme)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build WebSocket URL: %w", err)
	}
	urlWebsockets.Scheme = scheme

	// Short timeout context for the connection handshake only
	connCtx, connCtxCancel := context.WithTimeout(context.Background(), time.Second*3)
	defer connCtxCancel()

	conn, _, err := websocket.DefaultDialer.DialContext(connCtx, urlWebsockets.String(), nil)
	if err != nil {
		slog.Error("Failed to connect to WebSocket. Check URI", "url", urlWebsockets.String())
		return nil, nil, nil, err
	}

	// Home Assistant sends auth_required first
	msg, err := ReadMessage[struct {
		MsgType string `json:"type"`
	}](conn)
	if err != nil {
		return nil, nil, nil, err
	} else if msg.MsgType != "auth_required" {
		return nil, nil, nil, fmt.Errorf("expected auth_required message, got %s", msg.MsgType)
	}

	if err := sendAuthMessage(conn, token); err != nil {
		return nil, nil, nil, err
	}

	if err := verifyAuthResponse(conn); err != nil {
		slog.Error("Auth token is invalid. Please double check it or create a new token in your Home Assistant profile")
		return nil, nil, nil, err
	}

	// Background context for the application lifecycle (no timeout)
	appCtx, appCtxCancel := context.WithCancel(context.Background())

	return &HAConnection{Conn: conn}, appCtx, appCtxCancel, nil
}

func sendAuthMessage(conn *websocket.Conn, token string) error {
	type AuthMessage struct {
		MsgType     string `json:"type"`
		AccessToken string `json:"access_token"`
	}

	return conn.WriteJSON(AuthMessage{MsgType: "auth", AccessToken: token})
}

func verifyAuthResponse(conn *websocket.Conn) error {
	msg, err := ReadMessage[struct {
		MsgType string `json:"type"`
		Message string `json:"message"`
	}](conn)
	if err != nil {
		return err
	}

	if msg.MsgType != "auth_ok" {
		return ErrInvalidToken
	}

	return nil
}

// SubscribeToEventType subscribes the connection to a Home Assistant
// event bus event type, such as "call_service".
func SubscribeToEventType(eventType string, conn *HAConnection, id ...int64) error {
	type SubEvent struct {
		Id        int64  `json:"id"`
		Type      string `json:"type"`
		EventType string `json:"event_type"`
	}

	var finalId int64
	if len(id) == 0 {
		finalId = internal.NextId()
	} else {
		finalId = id[0]
	}

	err := conn.WriteMessage(SubEvent{
		Id:        finalId,
		Type:      "subscribe_events",
		EventType: eventType,
	})
	if err != nil {
		return fmt.Errorf("error writing to WebSocket: %w", err)
	}

	return nil
}
