// Package actor is a small in-process actor runtime: every actor owns a
// mailbox drained by a single goroutine, so state inside an actor is
// race-free by construction. Messages from one sender arrive in send order.
package actor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Actor processes one message at a time.
type Actor interface {
	Receive(ctx *Context)
}

// Producer builds a fresh actor instance; called again when the supervisor
// restarts a failed child.
type Producer func() Actor

// lifecycle and supervision signals delivered through the mailbox
type (
	Started        struct{}
	Stopping       struct{}
	Stopped        struct{}
	Restarting     struct{}
	ReceiveTimeout struct{}

	// Terminated tells a parent or watcher that an actor is gone.
	Terminated struct{ Who *PID }

	// ChildFailure tells a parent that a child panicked; the restart
	// decision has already been taken by the child's strategy.
	ChildFailure struct {
		Who    *PID
		Reason error
	}
)

type poisonPill struct{}

// PID is a structured actor address: a host/process qualifier plus a
// hierarchical instance id.
type PID struct {
	Address string
	ID      string

	proc *process
}

func (p *PID) String() string { return p.Address + "/" + p.ID }

// Name returns the last segment of the instance id; coordinators derive the
// domain id from it.
func (p *PID) Name() string {
	if i := strings.LastIndexByte(p.ID, '/'); i >= 0 {
		return p.ID[i+1:]
	}
	return p.ID
}

type envelope struct {
	message any
	reply   chan any
}

// ErrRequestTimeout is returned when a request sees no response in time.
var ErrRequestTimeout = errors.New("actor: request timed out")

// ErrDeadLetter is returned when a request is posted to a stopped actor.
var ErrDeadLetter = errors.New("actor: message sent to stopped actor")

// System owns the actor registry and the host address qualifier.
type System struct {
	address        string
	requestTimeout time.Duration

	mu    sync.Mutex
	roots map[string]*process
}

// NewSystem creates an actor system with the given host qualifier.
func NewSystem(address string) *System {
	return &System{
		address:        address,
		requestTimeout: 5 * time.Second,
		roots:          make(map[string]*process),
	}
}

// Address returns the host/process qualifier shared by all actors here.
func (s *System) Address() string { return s.address }

// Root returns a context detached from any actor, for spawning and
// requesting from the outside.
func (s *System) Root() *Context { return &Context{system: s} }

// Spawn starts a top-level actor.
func (s *System) Spawn(id string, producer Producer, opts ...Option) *PID {
	s.mu.Lock()
	if existing, ok := s.roots[id]; ok {
		s.mu.Unlock()
		return existing.pid
	}
	p := newProcess(s, nil, id, producer, opts...)
	s.roots[id] = p
	s.mu.Unlock()
	p.start()
	return p.pid
}

// Shutdown gracefully stops every top-level actor and waits for them.
func (s *System) Shutdown() {
	s.mu.Lock()
	roots := make([]*process, 0, len(s.roots))
	for _, p := range s.roots {
		roots = append(roots, p)
	}
	s.mu.Unlock()
	for _, p := range roots {
		p.poison()
	}
	for _, p := range roots {
		<-p.done
	}
}

// Send delivers a message from outside any actor, typically from a goroutine
// pumping an external stream into the system.
func (s *System) Send(pid *PID, msg any) {
	if pid == nil || pid.proc == nil {
		return
	}
	pid.proc.post(envelope{message: msg})
}

func (s *System) dropRoot(id string) {
	s.mu.Lock()
	delete(s.roots, id)
	s.mu.Unlock()
}

// Option tunes a spawned actor.
type Option func(*process)

// WithStrategy sets the supervision strategy applied when the actor panics.
func WithStrategy(st Strategy) Option {
	return func(p *process) { p.strategy = st }
}

// WithMailboxSize sets the mailbox buffer length.
func WithMailboxSize(n int) Option {
	return func(p *process) { p.mailbox = make(chan envelope, n) }
}

type process struct {
	system   *System
	pid      *PID
	parent   *process
	producer Producer
	actor    Actor
	strategy Strategy

	mailbox chan envelope
	stopped chan struct{} // closed once the loop must exit
	done    chan struct{} // closed after Stopped was delivered

	receiveTimeout time.Duration

	mu       sync.Mutex
	children map[string]*process
	watchers map[string]*PID

	stopOnce    sync.Once
	restarts    []time.Time
	terminating bool
}

func newProcess(s *System, parent *process, id string, producer Producer, opts ...Option) *process {
	fullID := id
	if parent != nil {
		fullID = parent.pid.ID + "/" + id
	}
	p := &process{
		system:   s,
		parent:   parent,
		producer: producer,
		actor:    producer(),
		strategy: DefaultStrategy(),
		mailbox:  make(chan envelope, 64),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
		children: make(map[string]*process),
		watchers: make(map[string]*PID),
	}
	p.pid = &PID{Address: s.address, ID: fullID, proc: p}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *process) start() { go p.run() }

func (p *process) run() {
	p.invoke(envelope{message: Started{}})
	for {
		var timeout <-chan time.Time
		var timer *time.Timer
		if p.receiveTimeout > 0 {
			timer = time.NewTimer(p.receiveTimeout)
			timeout = timer.C
		}
		select {
		case env := <-p.mailbox:
			if timer != nil {
				timer.Stop()
			}
			if _, ok := env.message.(poisonPill); ok {
				p.terminate()
				return
			}
			p.invoke(env)
		case <-timeout:
			p.invoke(envelope{message: ReceiveTimeout{}})
		case <-p.stopped:
			if timer != nil {
				timer.Stop()
			}
			p.terminate()
			return
		}
		select {
		case <-p.stopped:
			p.terminate()
			return
		default:
		}
	}
}

func (p *process) invoke(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			log.Error().Err(err).Str("actor", p.pid.ID).Msg("actor panicked")
			if p.terminating {
				return
			}
			if p.parent != nil {
				p.parent.post(envelope{message: ChildFailure{Who: p.pid, Reason: err}})
			}
			switch p.strategy.decide(err) {
			case DirectiveResume:
			case DirectiveRestart:
				if p.registerRestart() {
					p.restart()
				} else {
					log.Error().Str("actor", p.pid.ID).Msg("restart budget exhausted, stopping actor")
					p.signalStop()
				}
			case DirectiveStop:
				p.signalStop()
			}
		}
	}()
	ctx := &Context{system: p.system, proc: p, message: env.message, reply: env.reply}
	p.actor.Receive(ctx)
}

// registerRestart records an attempt and reports whether the bounded restart
// window still allows another one.
func (p *process) registerRestart() bool {
	now := time.Now()
	kept := p.restarts[:0]
	for _, t := range p.restarts {
		if now.Sub(t) < p.strategy.Within {
			kept = append(kept, t)
		}
	}
	p.restarts = append(kept, now)
	return len(p.restarts) <= p.strategy.MaxRetries
}

func (p *process) restart() {
	p.invoke(envelope{message: Restarting{}})
	p.actor = p.producer()
	p.invoke(envelope{message: Started{}})
}

func (p *process) post(env envelope) {
	select {
	case <-p.done:
		log.Debug().Str("actor", p.pid.ID).Msg("message dropped, actor stopped")
		if env.reply != nil {
			env.reply <- ErrDeadLetter
		}
	default:
		select {
		case p.mailbox <- env:
		case <-p.done:
			log.Debug().Str("actor", p.pid.ID).Msg("message dropped, actor stopped")
			if env.reply != nil {
				env.reply <- ErrDeadLetter
			}
		}
	}
}

// poison requests a graceful stop: queued messages are processed first.
func (p *process) poison() { p.post(envelope{message: poisonPill{}}) }

// signalStop requests a stop before draining the rest of the mailbox.
func (p *process) signalStop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

func (p *process) terminate() {
	p.terminating = true
	p.invoke(envelope{message: Stopping{}})

	p.mu.Lock()
	children := make([]*process, 0, len(p.children))
	for _, c := range p.children {
		children = append(children, c)
	}
	p.mu.Unlock()
	for _, c := range children {
		c.poison()
	}
	for _, c := range children {
		<-c.done
	}

	p.invoke(envelope{message: Stopped{}})
	close(p.done)
	p.drainMailbox()

	if p.parent != nil {
		p.parent.removeChild(p.pid.Name())
		p.parent.post(envelope{message: Terminated{Who: p.pid}})
	} else {
		p.system.dropRoot(p.pid.ID)
	}
	p.mu.Lock()
	watchers := make([]*PID, 0, len(p.watchers))
	for _, w := range p.watchers {
		watchers = append(watchers, w)
	}
	p.mu.Unlock()
	for _, w := range watchers {
		if w.proc != nil {
			w.proc.post(envelope{message: Terminated{Who: p.pid}})
		}
	}
}

// drainMailbox dead-letters whatever slipped into the mailbox between the
// poison pill being consumed and the done signal.
func (p *process) drainMailbox() {
	for {
		select {
		case env := <-p.mailbox:
			log.Debug().Str("actor", p.pid.ID).Msg("message dropped, actor stopped")
			if env.reply != nil {
				env.reply <- ErrDeadLetter
			}
		default:
			return
		}
	}
}

func (p *process) addChild(name string, c *process) {
	p.mu.Lock()
	p.children[name] = c
	p.mu.Unlock()
}

func (p *process) childNamed(name string) (*process, bool) {
	p.mu.Lock()
	c, ok := p.children[name]
	p.mu.Unlock()
	return c, ok
}

func (p *process) removeChild(name string) {
	p.mu.Lock()
	delete(p.children, name)
	p.mu.Unlock()
}

// Context carries one message delivery.
type Context struct {
	system  *System
	proc    *process
	message any
	reply   chan any
}

// Message returns the message being processed.
func (c *Context) Message() any { return c.message }

// Self returns the address of the receiving actor, nil on the root context.
func (c *Context) Self() *PID {
	if c.proc == nil {
		return nil
	}
	return c.proc.pid
}

// System returns the owning actor system.
func (c *Context) System() *System { return c.system }

// Respond answers the current request. A response without a requester is
// dropped.
func (c *Context) Respond(msg any) {
	if c.reply == nil {
		return
	}
	select {
	case c.reply <- msg:
	default:
	}
}

// Send delivers a message with no response expected.
func (c *Context) Send(pid *PID, msg any) {
	if pid == nil || pid.proc == nil {
		return
	}
	pid.proc.post(envelope{message: msg})
}

// Forward passes the current message, with its pending reply, to another
// actor.
func (c *Context) Forward(pid *PID) {
	if pid == nil || pid.proc == nil {
		return
	}
	pid.proc.post(envelope{message: c.message, reply: c.reply})
}

// Request sends a message and waits for the response. Waiting suspends only
// the calling actor; its mailbox keeps queueing.
func (c *Context) Request(pid *PID, msg any) (any, error) {
	if pid == nil || pid.proc == nil {
		return nil, ErrDeadLetter
	}
	reply := make(chan any, 1)
	pid.proc.post(envelope{message: msg, reply: reply})
	select {
	case res := <-reply:
		if err, ok := res.(error); ok && errors.Is(err, ErrDeadLetter) {
			return nil, ErrDeadLetter
		}
		return res, nil
	case <-time.After(c.system.requestTimeout):
		return nil, ErrRequestTimeout
	}
}

// Spawn starts a child of the current actor (or a top-level actor on the
// root context). Spawning an already existing name returns the live address.
func (c *Context) Spawn(id string, producer Producer, opts ...Option) *PID {
	if c.proc == nil {
		return c.system.Spawn(id, producer, opts...)
	}
	if existing, ok := c.proc.childNamed(id); ok {
		return existing.pid
	}
	child := newProcess(c.system, c.proc, id, producer, opts...)
	c.proc.addChild(id, child)
	child.start()
	return child.pid
}

// Stop asks an actor to stop after draining its queued messages.
func (c *Context) Stop(pid *PID) {
	if pid == nil || pid.proc == nil {
		return
	}
	pid.proc.poison()
}

// SetReceiveTimeout arms the idle timeout; zero disarms it.
func (c *Context) SetReceiveTimeout(d time.Duration) {
	if c.proc != nil {
		c.proc.receiveTimeout = d
	}
}

// Watch subscribes the current actor to the target's Terminated signal.
// Watching an already stopped actor delivers Terminated right away.
func (c *Context) Watch(pid *PID) {
	if c.proc == nil || pid == nil || pid.proc == nil {
		return
	}
	select {
	case <-pid.proc.done:
		c.proc.post(envelope{message: Terminated{Who: pid}})
		return
	default:
	}
	pid.proc.mu.Lock()
	pid.proc.watchers[c.proc.pid.ID] = c.proc.pid
	pid.proc.mu.Unlock()
}

// Unwatch removes the subscription.
func (c *Context) Unwatch(pid *PID) {
	if c.proc == nil || pid == nil || pid.proc == nil {
		return
	}
	pid.proc.mu.Lock()
	delete(pid.proc.watchers, c.proc.pid.ID)
	pid.proc.mu.Unlock()
}
