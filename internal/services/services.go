package services

import (
	"github.com/luminaide/colorcast/internal"
)

// ServiceWriter is the subset of the websocket connection the service
// layer needs. Satisfied by *connect.HAConnection.
type ServiceWriter interface {
	WriteMessage(msg any) error
}

type BaseServiceRequest struct {
	Id          int64          `json:"id"`
	RequestType string         `json:"type"` // hardcoded "call_service"
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data,omitempty"`
	Target      struct {
		EntityId string `json:"entity_id,omitempty"`
	} `json:"target,omitempty"`
}

func NewBaseServiceRequest(entityId string) BaseServiceRequest {
	id := internal.NextId()
	request := BaseServiceRequest{
		Id:          id,
		RequestType: "call_service",
	}

	if entityId != "" {
		request.Target.EntityId = entityId
	}

	return request
}
