package sse

// doneSentinel is the data payload OpenAI-compatible APIs send as the last
// record of a stream.
const doneSentinel = "[DONE]"

// Event is one decoded SSE record.
type Event struct {
	// Event is the "event:" field, empty when the record had none.
	Event string
	// Data holds every "data:" line of the record joined with "\n".
	Data string
	// ID is the "id:" field, empty when absent.
	ID string
	// Retry is the reconnection delay in milliseconds. It is nil when the
	// record had no retry field or the value was not a base-10 integer.
	Retry *int
}

// IsDone reports whether the event carries the "[DONE]" end-of-stream sentinel.
func (e Event) IsDone() bool {
	return e.Data == doneSentinel
}
