// Package message holds the request/response contracts exchanged with the
// actor layer. Every operation resolves to either a typed success payload or
// a Failure carrying a stable numeric code and a resolved message.
package message

import "racetimed/pkg/domain"

// Failure is the uniform failure response for every domain operation.
type Failure struct {
	Code  int
	Error string
}

// Fail builds a Failure with the registered message for the code.
func Fail(code domain.Code) Failure {
	return Failure{Code: int(code), Error: domain.ErrorMessage(code)}
}

// InvalidCommand is the explicit response to a message the actor's current
// state does not accept; unrecognized commands are never silently dropped.
type InvalidCommand struct {
	Command string
	State   string
}
