package actors

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
	"racetimed/pkg/transport"
)

const (
	connectAttempts = 3
	connectDelay    = 2 * time.Second
)

// Dialer builds a broker client for an address.
type Dialer func(brokerAddr string) transport.Client

// DeliverFunc resolves the inbound delivery target late, after the rest of
// the hierarchy is wired.
type DeliverFunc func() *actor.PID

// TransportCoordinator manages the subscriber and publisher children that
// bridge the broker into the actor system. Publishers are shared per
// (broker, topic); subscribers are tracked by a generated inventory id.
type TransportCoordinator struct {
	dial          Dialer
	defaultBroker string
	deliver       DeliverFunc

	subscribers map[string]subscriberEntry
	publishers  map[string]*actor.PID
}

type subscriberEntry struct {
	pid  *actor.PID
	info message.SubscriberInfo
}

func NewTransportCoordinator(dial Dialer, defaultBroker string, deliver DeliverFunc) actor.Producer {
	return func() actor.Actor {
		return &TransportCoordinator{
			dial:          dial,
			defaultBroker: defaultBroker,
			deliver:       deliver,
			subscribers:   make(map[string]subscriberEntry),
			publishers:    make(map[string]*actor.PID),
		}
	}
}

func (c *TransportCoordinator) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting, actor.ReceiveTimeout:
	case actor.ChildFailure:
		log.Error().Err(m.Reason).Str("child", m.Who.ID).Msg("transport child failed")
	case actor.Terminated:
		c.prune(m.Who)
	case message.CreateSubscriber:
		broker := c.broker(m.BrokerAddr)
		id := domain.NewID()
		pid := ctx.Spawn("sub-"+id, newSubscriber(c.dial, broker, m.TopicFilter, c.deliver()))
		c.subscribers[id] = subscriberEntry{
			pid:  pid,
			info: message.SubscriberInfo{ID: id, TopicFilter: m.TopicFilter, BrokerAddr: broker},
		}
		ctx.Respond(message.SubscriberCreated{ID: id})
	case message.StopSubscriber:
		entry, ok := c.subscribers[m.ID]
		if !ok {
			ctx.Respond(message.SubscriberNotFound{})
			return
		}
		delete(c.subscribers, m.ID)
		ctx.Stop(entry.pid)
		ctx.Respond(message.StopSubscriberSuccess{})
	case message.GetSubscriber:
		entry, ok := c.subscribers[m.ID]
		if !ok {
			ctx.Respond(message.SubscriberNotFound{})
			return
		}
		ctx.Respond(entry.info)
	case message.GetAllSubscribers:
		infos := make([]message.SubscriberInfo, 0, len(c.subscribers))
		for _, entry := range c.subscribers {
			infos = append(infos, entry.info)
		}
		ctx.Respond(message.AllSubscribers{Subscribers: infos})
	case message.GetOrCreatePublisher:
		broker := c.broker(m.BrokerAddr)
		key := broker + "|" + m.Topic
		pid, ok := c.publishers[key]
		if !ok {
			pid = ctx.Spawn("pub-"+domain.NewID(), newPublisher(c.dial, broker, m.Topic))
			c.publishers[key] = pid
		}
		ctx.Respond(pid)
	default:
		respondUntyped(ctx, "transport-coordinator")
	}
}

func (c *TransportCoordinator) broker(addr string) string {
	if addr == "" {
		return c.defaultBroker
	}
	return addr
}

func (c *TransportCoordinator) prune(who *actor.PID) {
	for id, entry := range c.subscribers {
		if entry.pid.ID == who.ID {
			delete(c.subscribers, id)
			return
		}
	}
	for key, pid := range c.publishers {
		if pid.ID == who.ID {
			delete(c.publishers, key)
			return
		}
	}
}

// streamClosed is the pump goroutine telling its subscriber the broker
// dropped the subscription.
type streamClosed struct{}

// subscriberActor holds one broker subscription and pumps received payloads
// to the delivery target. A dropped stream is reconnected a bounded number
// of times; exhausting the attempts is fatal for this subscriber.
type subscriberActor struct {
	dial    Dialer
	broker  string
	filter  string
	deliver *actor.PID

	client   transport.Client
	stopping bool
}

func newSubscriber(dial Dialer, broker, filter string, deliver *actor.PID) actor.Producer {
	return func() actor.Actor {
		return &subscriberActor{dial: dial, broker: broker, filter: filter, deliver: deliver}
	}
}

func (s *subscriberActor) Receive(ctx *actor.Context) {
	switch ctx.Message().(type) {
	case actor.Started:
		if err := s.connect(ctx); err != nil {
			log.Err(err).Str("broker", s.broker).Str("filter", s.filter).Msg("subscriber connect failed, giving up")
			ctx.Stop(ctx.Self())
		}
	case streamClosed:
		if s.stopping {
			return
		}
		log.Warn().Str("broker", s.broker).Str("filter", s.filter).Msg("subscription dropped, reconnecting")
		if s.client != nil {
			_ = s.client.Close()
		}
		if err := s.connect(ctx); err != nil {
			log.Err(err).Str("broker", s.broker).Str("filter", s.filter).Msg("reconnect failed, stopping subscriber")
			ctx.Stop(ctx.Self())
		}
	case actor.Stopping:
		s.stopping = true
		if s.client != nil {
			_ = s.client.Close()
		}
	}
}

func (s *subscriberActor) connect(ctx *actor.Context) error {
	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(connectDelay)
		}
		client := s.dial(s.broker)
		if err := client.Connect(); err != nil {
			lastErr = err
			continue
		}
		ch, err := client.Subscribe(s.filter)
		if err != nil {
			lastErr = err
			_ = client.Close()
			continue
		}
		s.client = client
		go pump(ctx.System(), ctx.Self(), s.deliver, ch)
		return nil
	}
	return lastErr
}

// pump runs outside the actor; it only posts messages into the system.
func pump(sys *actor.System, self, deliver *actor.PID, ch <-chan transport.Message) {
	for msg := range ch {
		sys.Send(deliver, message.Inbound{Topic: msg.Topic, Payload: msg.Payload})
	}
	sys.Send(self, streamClosed{})
}

// publisherActor owns one outbound topic. Telemetry messages sent to it are
// msgpack-encoded; raw Publish payloads pass through untouched.
type publisherActor struct {
	dial   Dialer
	broker string
	topic  string

	client transport.Client
}

func newPublisher(dial Dialer, broker, topic string) actor.Producer {
	return func() actor.Actor {
		return &publisherActor{dial: dial, broker: broker, topic: topic}
	}
}

func (p *publisherActor) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started:
		if err := p.connect(); err != nil {
			log.Err(err).Str("broker", p.broker).Str("topic", p.topic).Msg("publisher connect failed, giving up")
			ctx.Stop(ctx.Self())
		}
	case actor.Stopping:
		if p.client != nil {
			_ = p.client.Close()
		}
	case actor.Stopped, actor.Restarting, actor.ReceiveTimeout, actor.ChildFailure, actor.Terminated:
	case message.Publish:
		p.publish(m.Payload)
	default:
		buf, err := msgpack.Marshal(ctx.Message())
		if err != nil {
			log.Err(err).Str("topic", p.topic).Msg("payload encode failed")
			return
		}
		p.publish(buf)
	}
}

func (p *publisherActor) connect() error {
	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(connectDelay)
		}
		client := p.dial(p.broker)
		if err := client.Connect(); err != nil {
			lastErr = err
			continue
		}
		p.client = client
		return nil
	}
	return lastErr
}

func (p *publisherActor) publish(payload []byte) {
	if p.client == nil {
		return
	}
	if err := p.client.Publish(p.topic, payload); err != nil {
		log.Err(err).Str("topic", p.topic).Msg("publish failed")
	}
}

// duplicate identical readings inside this window collapse to one; the
// transport delivers at least once
const dedupWindow = time.Second

// InboundRouter decodes wire envelopes, collapses transport duplicates and
// hands readings to the race coordinator; it runs behind a consistent-hash
// pool so one race's readings stay ordered on one replica.
type InboundRouter struct {
	races *actor.PID
	seen  map[string]time.Time
}

func NewInboundRouter(races *actor.PID) actor.Producer {
	return func() actor.Actor {
		return &InboundRouter{races: races, seen: make(map[string]time.Time)}
	}
}

func (r *InboundRouter) Receive(ctx *actor.Context) {
	switch m := ctx.Message().(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting,
		actor.ReceiveTimeout, actor.ChildFailure, actor.Terminated:
	case message.Inbound:
		var reading message.SensorReading
		if err := msgpack.Unmarshal(m.Payload, &reading); err != nil {
			log.Err(err).Str("topic", m.Topic).Msg("sensor payload decode failed, dropped")
			return
		}
		r.forward(ctx, reading)
	case message.SensorReading:
		r.forward(ctx, m)
	default:
		respondUntyped(ctx, "inbound-router")
	}
}

func (r *InboundRouter) forward(ctx *actor.Context, m message.SensorReading) {
	fp := fmt.Sprintf("%s/%d/%s/%d/%d", m.RaceID, m.Lane, m.Kind, m.TimeMs, m.DistanceCm)
	now := time.Now()
	if first, ok := r.seen[fp]; ok && now.Sub(first) < dedupWindow {
		log.Debug().Str("race", m.RaceID).Int16("lane", m.Lane).Str("kind", m.Kind).Msg("duplicate reading dropped")
		return
	}
	r.expire(now)
	r.seen[fp] = now
	ctx.Send(r.races, m)
}

func (r *InboundRouter) expire(now time.Time) {
	if len(r.seen) < 1024 {
		return
	}
	for fp, first := range r.seen {
		if now.Sub(first) >= dedupWindow {
			delete(r.seen, fp)
		}
	}
}
