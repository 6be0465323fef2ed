package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminaide/colorcast/internal/connect"
)

type fakeWriter struct {
	requests []BaseServiceRequest
	onWrite  func(req BaseServiceRequest)
	err      error
}

func (w *fakeWriter) WriteMessage(msg any) error {
	if w.err != nil {
		return w.err
	}
	req := msg.(BaseServiceRequest)
	w.requests = append(w.requests, req)
	if w.onWrite != nil {
		w.onWrite(req)
	}
	return nil
}

func TestLightTurnOnRequestShape(t *testing.T) {
	writer := &fakeWriter{}
	light := NewLight(writer, connect.NewResults())

	err := light.TurnOn("light.desk", map[string]any{"brightness": 120})
	require.NoError(t, err)
	require.Len(t, writer.requests, 1)

	req := writer.requests[0]
	assert.Equal(t, "call_service", req.RequestType)
	assert.Equal(t, "light", req.Domain)
	assert.Equal(t, "turn_on", req.Service)
	assert.Equal(t, "light.desk", req.Target.EntityId)
	assert.Equal(t, 120, req.ServiceData["brightness"])
}

func TestLightTurnOnAwait(t *testing.T) {
	results := connect.NewResults()
	writer := &fakeWriter{}
	writer.onWrite = func(req BaseServiceRequest) {
		// simulate the read loop delivering the matching result
		results.Resolve(connect.ChannelMessage{Type: "result", Id: req.Id, Success: true})
	}
	light := NewLight(writer, results)

	err := light.TurnOnAwait(context.Background(), "light.desk", map[string]any{"rgb_color": []int{10, 20, 30}})
	require.NoError(t, err)
	require.Len(t, writer.requests, 1)
	assert.Equal(t, []int{10, 20, 30}, writer.requests[0].ServiceData["rgb_color"])
}

func TestLightTurnOnAwaitFailedResult(t *testing.T) {
	results := connect.NewResults()
	writer := &fakeWriter{}
	writer.onWrite = func(req BaseServiceRequest) {
		results.Resolve(connect.ChannelMessage{Type: "result", Id: req.Id, Success: false, Raw: []byte(`{}`)})
	}
	light := NewLight(writer, results)

	err := light.TurnOnAwait(context.Background(), "light.desk", nil)
	assert.Error(t, err)
}

func TestLightTurnOnAwaitWriteError(t *testing.T) {
	results := connect.NewResults()
	writer := &fakeWriter{err: errors.New("connection closed")}
	light := NewLight(writer, results)

	err := light.TurnOnAwait(context.Background(), "light.desk", nil)
	require.Error(t, err)
}

func TestLightTurnOff(t *testing.T) {
	writer := &fakeWriter{}
	light := NewLight(writer, connect.NewResults())

	require.NoError(t, light.TurnOff("light.desk"))
	require.Len(t, writer.requests, 1)
	assert.Equal(t, "turn_off", writer.requests[0].Service)
}
