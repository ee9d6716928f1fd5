package actor

import "time"

// Directive is the supervision decision for a failed actor.
type Directive int

const (
	DirectiveRestart Directive = iota
	DirectiveStop
	DirectiveResume
)

// Decider maps a failure reason to a directive; it must be pure.
type Decider func(reason error) Directive

// Strategy bounds automatic recovery: at most MaxRetries restarts inside the
// Within window, after which the actor stops permanently.
type Strategy struct {
	MaxRetries int
	Within     time.Duration
	Decide     Decider
}

func (s Strategy) decide(reason error) Directive {
	if s.Decide == nil {
		return DirectiveRestart
	}
	return s.Decide(reason)
}

// DefaultStrategy restarts on any failure, three times per second at most.
func DefaultStrategy() Strategy {
	return Strategy{MaxRetries: 3, Within: time.Second}
}
