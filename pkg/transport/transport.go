// Package transport bridges the actor system to a pub/sub broker. The
// Client contract keeps the broker swappable; the in-process Broker here is
// the default backing for a single-node deployment.
package transport

import "fmt"

// Message is one published payload with the concrete topic it arrived on.
type Message struct {
	Topic   string
	Payload []byte
}

// Client is a broker connection. Subscribe returns a channel that closes
// when the client closes or the broker shuts down.
type Client interface {
	Connect() error
	Publish(topic string, payload []byte) error
	Subscribe(filter string) (<-chan Message, error)
	Close() error
}

// RaceTopic is the topic a race publishes its outbound messages on.
func RaceTopic(raceID string) string {
	return fmt.Sprintf("races/%s/messages", raceID)
}

// DeviceTopic is the topic a timing device publishes on.
func DeviceTopic(deviceID string) string {
	return fmt.Sprintf("devices/%s/messages", deviceID)
}

// MatchTopic reports whether a concrete topic matches a filter. Filters are
// segment-wise exact, with a trailing "#" matching the whole remainder.
func MatchTopic(filter, topic string) bool {
	for {
		fs, frest, fmore := nextSegment(filter)
		ts, trest, tmore := nextSegment(topic)
		if fs == "#" {
			return true
		}
		if fs != ts {
			return false
		}
		if !fmore && !tmore {
			return true
		}
		if fmore != tmore {
			return false
		}
		filter, topic = frest, trest
	}
}

func nextSegment(s string) (segment, rest string, more bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
