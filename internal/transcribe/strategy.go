package transcribe

import "strings"

// SyncPayloadLimit is the largest audio payload sent inline. The synchronous
// recognize call rejects larger content.
const SyncPayloadLimit int64 = 10 * 1024 * 1024

// Strategy selects how audio reaches the speech service.
type Strategy int

const (
	// Sync sends the audio bytes inline in one blocking call.
	Sync Strategy = iota
	// Async stages audio in the object store and polls a long-running operation.
	Async
)

func (s Strategy) String() string {
	switch s {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return "unknown"
	}
}

// SelectStrategy picks Async for payloads strictly larger than SyncPayloadLimit.
func SelectStrategy(sizeBytes int64) Strategy {
	if sizeBytes > SyncPayloadLimit {
		return Async
	}
	return Sync
}

// JoinTranscript concatenates the top alternative of every result in order.
// No separator is inserted between segments; results without alternatives
// contribute nothing.
func JoinTranscript(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		b.WriteString(r.Alternatives[0].Transcript)
	}
	return b.String()
}
