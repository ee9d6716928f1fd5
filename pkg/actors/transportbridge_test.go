package actors

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"racetimed/pkg/actor"
	"racetimed/pkg/domain"
	"racetimed/pkg/message"
	"racetimed/pkg/transport"
)

type bridgeEnv struct {
	*testEnv
	broker      *transport.Broker
	coordinator *actor.PID
	inbound     *capture
}

func newBridgeEnv(t *testing.T) *bridgeEnv {
	e := newTestEnv(t)
	broker := transport.NewBroker()
	t.Cleanup(broker.Close)

	inbound := newCapture()
	target := e.sys.Spawn("inbound-sink", inbound.producer())
	dial := func(string) transport.Client { return transport.NewBrokerClient(broker) }
	coordinator := e.sys.Spawn("transporter",
		NewTransportCoordinator(dial, "local", func() *actor.PID { return target }))

	return &bridgeEnv{testEnv: e, broker: broker, coordinator: coordinator, inbound: inbound}
}

func (e *bridgeEnv) createSubscriber(t *testing.T, filter string) string {
	t.Helper()
	res := e.request(t, e.coordinator, message.CreateSubscriber{TopicFilter: filter})
	created, ok := res.(message.SubscriberCreated)
	require.True(t, ok, "unexpected response %#v", res)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestSubscriberBridgesBrokerIntoSystem(t *testing.T) {
	e := newBridgeEnv(t)
	e.createSubscriber(t, "devices/#")

	payload, err := msgpack.Marshal(message.SensorReading{RaceID: "r1", Lane: 1, Kind: message.SensorFinish, TimeMs: 9800})
	require.NoError(t, err)

	// the subscription lands asynchronously, keep publishing until delivered
	var got message.Inbound
	require.Eventually(t, func() bool {
		_ = e.broker.Publish(transport.DeviceTopic("d1"), payload)
		select {
		case m := <-e.inbound.ch:
			got = m.(message.Inbound)
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, transport.DeviceTopic("d1"), got.Topic)
	var reading message.SensorReading
	require.NoError(t, msgpack.Unmarshal(got.Payload, &reading))
	assert.Equal(t, "r1", reading.RaceID)
	assert.Equal(t, 9800, reading.TimeMs)
}

func TestSubscriberInventory(t *testing.T) {
	e := newBridgeEnv(t)
	first := e.createSubscriber(t, "devices/#")
	second := e.createSubscriber(t, "races/#")

	res := e.request(t, e.coordinator, message.GetSubscriber{ID: first})
	info, ok := res.(message.SubscriberInfo)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Equal(t, first, info.ID)
	assert.Equal(t, "devices/#", info.TopicFilter)
	assert.Equal(t, "local", info.BrokerAddr)

	res = e.request(t, e.coordinator, message.GetAllSubscribers{})
	all, ok := res.(message.AllSubscribers)
	require.True(t, ok, "unexpected response %#v", res)
	assert.Len(t, all.Subscribers, 2)

	res = e.request(t, e.coordinator, message.StopSubscriber{ID: second})
	require.IsType(t, message.StopSubscriberSuccess{}, res)

	res = e.request(t, e.coordinator, message.GetSubscriber{ID: second})
	require.IsType(t, message.SubscriberNotFound{}, res)
	res = e.request(t, e.coordinator, message.StopSubscriber{ID: second})
	require.IsType(t, message.SubscriberNotFound{}, res)
}

func TestPublisherIsSharedPerTopic(t *testing.T) {
	e := newBridgeEnv(t)

	res := e.request(t, e.coordinator, message.GetOrCreatePublisher{Topic: transport.RaceTopic("r1")})
	first, ok := res.(*actor.PID)
	require.True(t, ok, "unexpected response %#v", res)

	res = e.request(t, e.coordinator, message.GetOrCreatePublisher{Topic: transport.RaceTopic("r1")})
	assert.Same(t, first, res.(*actor.PID))

	res = e.request(t, e.coordinator, message.GetOrCreatePublisher{Topic: transport.RaceTopic("r2")})
	assert.NotSame(t, first, res.(*actor.PID))
}

func TestPublisherEncodesTelemetry(t *testing.T) {
	e := newBridgeEnv(t)

	listener := transport.NewBrokerClient(e.broker)
	require.NoError(t, listener.Connect())
	ch, err := listener.Subscribe("races/#")
	require.NoError(t, err)

	res := e.request(t, e.coordinator, message.GetOrCreatePublisher{Topic: transport.RaceTopic("r1")})
	pub := res.(*actor.PID)

	sent := message.LaneUpdate{RaceID: "r1", Lane: 3, Sample: domain.DistanceTime{DistanceCm: 1000, TimeMs: 900}, SpeedKmH: 40}
	e.sys.Send(pub, sent)

	select {
	case m := <-ch:
		assert.Equal(t, transport.RaceTopic("r1"), m.Topic)
		var got message.LaneUpdate
		require.NoError(t, msgpack.Unmarshal(m.Payload, &got))
		assert.Equal(t, sent, got)
	case <-time.After(time.Second):
		t.Fatal("no telemetry published")
	}
}

func TestPublisherPassesRawPayloadsThrough(t *testing.T) {
	e := newBridgeEnv(t)

	listener := transport.NewBrokerClient(e.broker)
	require.NoError(t, listener.Connect())
	ch, err := listener.Subscribe("races/#")
	require.NoError(t, err)

	res := e.request(t, e.coordinator, message.GetOrCreatePublisher{Topic: transport.RaceTopic("r1")})
	e.sys.Send(res.(*actor.PID), message.Publish{Payload: []byte("raw")})

	select {
	case m := <-ch:
		assert.Equal(t, []byte("raw"), m.Payload)
	case <-time.After(time.Second):
		t.Fatal("no payload published")
	}
}

func TestInboundRouterDedupsBurstDuplicates(t *testing.T) {
	e := newTestEnv(t)
	sink := newCapture()
	target := e.sys.Spawn("races-sink", sink.producer())
	router := e.sys.Spawn("inbound", NewInboundRouter(target))

	reading := message.SensorReading{RaceID: "r1", Lane: 1, Kind: message.SensorSplit, DistanceCm: 1000, TimeMs: 900}
	e.sys.Send(router, reading)
	e.sys.Send(router, reading)
	other := reading
	other.TimeMs = 901
	e.sys.Send(router, other)

	first := sink.next(t, time.Second)
	assert.Equal(t, reading, first)
	second := sink.next(t, time.Second)
	assert.Equal(t, other, second)

	select {
	case m := <-sink.ch:
		t.Fatalf("duplicate reading forwarded: %#v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInboundHashKeyFollowsRace(t *testing.T) {
	payload, err := msgpack.Marshal(message.SensorReading{RaceID: "r9", Lane: 1, Kind: message.SensorSplit, TimeMs: 900})
	require.NoError(t, err)

	assert.Equal(t, "r9", message.Inbound{Topic: transport.DeviceTopic("d1"), Payload: payload}.HashKey())
	// unreadable payloads fall back to the topic
	assert.Equal(t, transport.DeviceTopic("d1"),
		message.Inbound{Topic: transport.DeviceTopic("d1"), Payload: []byte{0xc1}}.HashKey())
}

func TestInboundEnvelopesForOneRaceStayOnOneReplica(t *testing.T) {
	e := newTestEnv(t)

	var mu sync.Mutex
	replicas := map[string]struct{}{}
	var handled atomic.Int32
	producer := func() actor.Actor {
		return receiveFunc(func(ctx *actor.Context) {
			if _, ok := ctx.Message().(message.Inbound); ok {
				mu.Lock()
				replicas[ctx.Self().Name()] = struct{}{}
				mu.Unlock()
				handled.Add(1)
			}
		})
	}
	pool := e.sys.Spawn("inbound-pool", actor.NewRouter(actor.ConsistentHash, 4, producer))

	// one race publishes through many device feeds; all of it must land on
	// the same replica
	for i := 0; i < 16; i++ {
		payload, err := msgpack.Marshal(message.SensorReading{
			RaceID: "race-1", Lane: 1, Kind: message.SensorSplit, DistanceCm: 1000 * (i + 1), TimeMs: 900 * (i + 1),
		})
		require.NoError(t, err)
		e.sys.Send(pool, message.Inbound{Topic: transport.DeviceTopic(fmt.Sprintf("d%d", i)), Payload: payload})
	}

	require.Eventually(t, func() bool { return handled.Load() == 16 }, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, replicas, 1)
}

func TestInboundRouterDecodesWireEnvelopes(t *testing.T) {
	e := newTestEnv(t)
	sink := newCapture()
	target := e.sys.Spawn("races-sink", sink.producer())
	router := e.sys.Spawn("inbound", NewInboundRouter(target))

	reading := message.SensorReading{RaceID: "r2", Lane: 4, Kind: message.SensorReaction, TimeMs: 140}
	payload, err := msgpack.Marshal(reading)
	require.NoError(t, err)
	e.sys.Send(router, message.Inbound{Topic: transport.DeviceTopic("d1"), Payload: payload})

	assert.Equal(t, reading, sink.next(t, time.Second))

	// garbage payloads are dropped, not forwarded
	e.sys.Send(router, message.Inbound{Topic: transport.DeviceTopic("d1"), Payload: []byte{0xc1}})
	select {
	case m := <-sink.ch:
		t.Fatalf("undecodable payload forwarded: %#v", m)
	case <-time.After(100 * time.Millisecond):
	}
}
