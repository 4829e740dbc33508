package meter

// Event is a sampler lifecycle notification.
type Event int

// Sampler events
const (
	EventStarted Event = iota
	EventStopped
	EventCaptureUnavailable
	EventCaptureRecovered
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventCaptureUnavailable:
		return "capture unavailable"
	case EventCaptureRecovered:
		return "capture recovered"
	default:
		return "unknown"
	}
}

// Stats counts what a session's ticks did.
type Stats struct {
	Ticks  uint64 // ticks handled
	Pushes uint64 // ticks that pushed a level
	Misses uint64 // ticks without a reading
	Late   uint64 // ticks later than period plus tolerated jitter
}
