package ws

import "encoding/json"

// ClientSink adapts one connection's outbound queue to contract.EventSink.
// Consume side: the write pump drains Frames onto the wire.
type ClientSink struct {
	frames chan []byte
}

func NewClientSink(bufferSize int) *ClientSink {
	return &ClientSink{frames: make(chan []byte, bufferSize)}
}

// Emit marshals the event into a frame and enqueues it. Never blocks: when
// the buffer is full the frame is dropped for this connection only, the
// fan-out to everyone else is unaffected.
func (s *ClientSink) Emit(event string, payload any) error {
	frame, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case s.frames <- frame:
	default:
		// Backpressure: slow consumer loses this frame
	}
	return nil
}

func (s *ClientSink) Frames() <-chan []byte {
	return s.frames
}
