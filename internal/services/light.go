package services

import (
	"context"

	"github.com/luminaide/colorcast/internal/connect"
)

type Light struct {
	conn    ServiceWriter
	results *connect.Results
}

func NewLight(conn ServiceWriter, results *connect.Results) *Light {
	return &Light{conn: conn, results: results}
}

// TurnOn a light entity. Takes an entityId and an optional map that is translated into service_data.
func (l *Light) TurnOn(entityId string, serviceData ...map[string]any) error {
	req := NewBaseServiceRequest(entityId)
	req.Domain = "light"
	req.Service = "turn_on"
	if len(serviceData) != 0 {
		req.ServiceData = serviceData[0]
	}

	return l.conn.WriteMessage(req)
}

// TurnOnAwait turns on a light entity and blocks until Home Assistant
// acknowledges the call (or ctx is done). Used where callers need each
// command to complete before issuing the next.
func (l *Light) TurnOnAwait(ctx context.Context, entityId string, serviceData map[string]any) error {
	req := NewBaseServiceRequest(entityId)
	req.Domain = "light"
	req.Service = "turn_on"
	if len(serviceData) != 0 {
		req.ServiceData = serviceData
	}

	ch := l.results.Expect(req.Id)
	if err := l.conn.WriteMessage(req); err != nil {
		l.results.Forget(req.Id)
		return err
	}

	_, err := l.results.Wait(ctx, req.Id, ch)
	return err
}

// TurnOff turns off a light entity.
func (l *Light) TurnOff(entityId string) error {
	req := NewBaseServiceRequest(entityId)
	req.Domain = "light"
	req.Service = "turn_off"

	return l.conn.WriteMessage(req)
}
