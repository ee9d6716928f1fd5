package transport

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrBrokerClosed is returned by operations on a shut-down broker.
var ErrBrokerClosed = errors.New("transport: broker closed")

const subscriptionBuffer = 64

// Broker is an in-process pub/sub hub. Delivery is fan-out per matching
// subscription; a subscriber that stops draining loses messages rather than
// blocking publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	closed bool
}

type subscription struct {
	filter string
	ch     chan Message
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*subscription]struct{})}
}

func (b *Broker) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for sub := range b.subs {
		if !MatchTopic(sub.filter, topic) {
			continue
		}
		select {
		case sub.ch <- Message{Topic: topic, Payload: payload}:
		default:
			log.Warn().Str("topic", topic).Str("filter", sub.filter).Msg("subscriber buffer full, message dropped")
		}
	}
	return nil
}

func (b *Broker) Subscribe(filter string) (*subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	sub := &subscription{filter: filter, ch: make(chan Message, subscriptionBuffer)}
	b.subs[sub] = struct{}{}
	return sub, nil
}

func (b *Broker) Unsubscribe(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Close drops every subscription and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// BrokerClient adapts a Broker to the Client contract. One client carries
// at most one live subscription, mirroring how device-side clients connect.
type BrokerClient struct {
	broker *Broker

	mu        sync.Mutex
	connected bool
	sub       *subscription
}

func NewBrokerClient(broker *Broker) *BrokerClient {
	return &BrokerClient{broker: broker}
}

func (c *BrokerClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broker.mu.RLock()
	closed := c.broker.closed
	c.broker.mu.RUnlock()
	if closed {
		return ErrBrokerClosed
	}
	c.connected = true
	return nil
}

func (c *BrokerClient) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return errors.New("transport: publish on disconnected client")
	}
	return c.broker.Publish(topic, payload)
}

func (c *BrokerClient) Subscribe(filter string) (<-chan Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil, errors.New("transport: subscribe on disconnected client")
	}
	if c.sub != nil {
		c.broker.Unsubscribe(c.sub)
	}
	sub, err := c.broker.Subscribe(filter)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return sub.ch, nil
}

func (c *BrokerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		c.broker.Unsubscribe(c.sub)
		c.sub = nil
	}
	c.connected = false
	return nil
}
