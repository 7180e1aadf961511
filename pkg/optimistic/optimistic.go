// Package optimistic implements a two-phase state container for
// optimistic-update workflows: a mutation is applied to local state
// immediately, then either committed (replaced wholesale by the
// authoritative remote state, or finalized as-is for local-only flows)
// or rolled back to the pre-mutation snapshot verbatim.
package optimistic

import "github.com/go-faster/errors"

// Phase is the container's position in the mutation lifecycle.
type Phase int

const (
	// PhaseIdle means no mutation is in flight.
	PhaseIdle Phase = iota
	// PhaseMutating means an optimistic mutation has been applied locally
	// and awaits confirmation or rollback.
	PhaseMutating
)

var (
	// ErrMutationInFlight is returned by Begin while a previous mutation
	// has not been committed or rolled back.
	ErrMutationInFlight = errors.New("optimistic: mutation already in flight")
	// ErrNoMutation is returned by Commit, CommitLocal, and Rollback when
	// no mutation is in flight.
	ErrNoMutation = errors.New("optimistic: no mutation in flight")
)

// Container holds a value of type T and a snapshot taken at Begin time.
// It is not safe for concurrent use; the owner serializes access.
type Container[T any] struct {
	clone    func(T) T
	state    T
	snapshot T
	phase    Phase
}

// New returns a container holding initial. clone must produce a deep copy:
// mutations to the live state must never reach a snapshot taken earlier.
func New[T any](initial T, clone func(T) T) *Container[T] {
	return &Container[T]{clone: clone, state: initial}
}

// Get returns the current state. Callers treating T as a reference type
// must not mutate it outside Begin.
func (c *Container[T]) Get() T {
	return c.state
}

// Phase returns the current lifecycle phase.
func (c *Container[T]) Phase() Phase {
	return c.phase
}

// Begin snapshots the current state and applies mutate to the live value.
// The mutation is visible through Get immediately, before any confirmation.
func (c *Container[T]) Begin(mutate func(T)) error {
	if c.phase != PhaseIdle {
		return ErrMutationInFlight
	}
	c.snapshot = c.clone(c.state)
	mutate(c.state)
	c.phase = PhaseMutating
	return nil
}

// Commit replaces the state wholesale with the authoritative value and
// discards the snapshot. Temporary identifiers assigned during Begin are
// gone with the optimistic value.
func (c *Container[T]) Commit(authoritative T) error {
	if c.phase != PhaseMutating {
		return ErrNoMutation
	}
	c.state = authoritative
	var zero T
	c.snapshot = zero
	c.phase = PhaseIdle
	return nil
}

// CommitLocal finalizes the optimistic value as-is. Used when there is no
// remote confirmation step.
func (c *Container[T]) CommitLocal() error {
	if c.phase != PhaseMutating {
		return ErrNoMutation
	}
	var zero T
	c.snapshot = zero
	c.phase = PhaseIdle
	return nil
}

// Rollback restores the pre-mutation snapshot verbatim. No partial merge of
// old and new state is attempted.
func (c *Container[T]) Rollback() error {
	if c.phase != PhaseMutating {
		return ErrNoMutation
	}
	c.state = c.snapshot
	var zero T
	c.snapshot = zero
	c.phase = PhaseIdle
	return nil
}

// Replace swaps the state outside a mutation, for hydration and other
// non-optimistic flows.
func (c *Container[T]) Replace(state T) error {
	if c.phase != PhaseIdle {
		return ErrMutationInFlight
	}
	c.state = state
	return nil
}
