package actor

// Receive is a handler for the actor's current lifecycle state.
type Receive func(ctx *Context)

// Behavior selects the handler for incoming messages; Become switches it as
// the state machine transitions.
type Behavior struct {
	current Receive
}

func (b *Behavior) Become(r Receive) { b.current = r }

func (b *Behavior) Receive(ctx *Context) {
	if b.current != nil {
		b.current(ctx)
	}
}
