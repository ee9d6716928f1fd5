package message

import "github.com/vmihailenco/msgpack/v5"

// transport coordination messages

type CreateSubscriber struct {
	TopicFilter string
	BrokerAddr  string
}

type SubscriberCreated struct {
	ID string
}

type GetOrCreatePublisher struct {
	Topic      string
	BrokerAddr string
}

type StopSubscriber struct {
	ID string
}

type StopSubscriberSuccess struct{}

type GetSubscriber struct {
	ID string
}

type SubscriberInfo struct {
	ID          string
	TopicFilter string
	BrokerAddr  string
}

type GetAllSubscribers struct{}

type AllSubscribers struct {
	Subscribers []SubscriberInfo
}

type SubscriberNotFound struct{}

// Inbound is a payload received from the transport, forwarded to routing.
type Inbound struct {
	Topic   string
	Payload []byte
}

// HashKey pins the envelope to the same pool replica as the race its
// payload belongs to, so one race's readings keep arrival order through the
// inbound pool. Payloads without a readable race id fall back to the topic.
func (i Inbound) HashKey() string {
	var reading SensorReading
	if err := msgpack.Unmarshal(i.Payload, &reading); err == nil && reading.RaceID != "" {
		return reading.RaceID
	}
	return i.Topic
}

// Publish asks a publisher actor to emit a payload on its topic.
type Publish struct {
	Payload []byte
}
