package connect

import (
	"context"
	"fmt"
	"sync"
)

// Results routes "result" messages from the websocket read loop back to
// the goroutine that issued the request with the matching id. Awaiting a
// result is how callers get "call completed" semantics out of Home
// Assistant's call_service request.
type Results struct {
	mutex   sync.Mutex
	pending map[int64]chan ChannelMessage
}

func NewResults() *Results {
	return &Results{pending: map[int64]chan ChannelMessage{}}
}

// Expect registers interest in the result for the given request id.
// The returned channel receives at most one message.
func (r *Results) Expect(id int64) chan ChannelMessage {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ChannelMessage, 1)
	r.pending[id] = ch
	return ch
}

// Forget drops a pending registration, usually after a timeout.
func (r *Results) Forget(id int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.pending, id)
}

// Resolve delivers a message to the waiter registered for its id, if any.
// It reports whether the message was claimed.
func (r *Results) Resolve(msg ChannelMessage) bool {
	if msg.Type != "result" {
		return false
	}

	r.mutex.Lock()
	ch, ok := r.pending[msg.Id]
	if ok {
		delete(r.pending, msg.Id)
	}
	r.mutex.Unlock()

	if ok {
		ch <- msg
	}
	return ok
}

// Wait blocks until the result registered via Expect arrives or ctx is
// done. Expect must have been called before the request was written so
// a fast response cannot slip past the waiter.
func (r *Results) Wait(ctx context.Context, id int64, ch chan ChannelMessage) (ChannelMessage, error) {
	select {
	case msg := <-ch:
		if !msg.Success {
			return msg, fmt.Errorf("service call %d failed: %s", id, string(msg.Raw))
		}
		return msg, nil
	case <-ctx.Done():
		r.Forget(id)
		return ChannelMessage{}, ctx.Err()
	}
}
