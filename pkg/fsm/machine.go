// Package fsm is a small table-driven finite state machine.
//
// The machine holds no per-subject data: every subject carries its own
// current state and the machine only decides, for a state and an event,
// which transition fires and in what order the actions run.
package fsm

import "fmt"

// Subject is anything that carries a current state.
type Subject[S comparable] interface {
	State() S
	SetState(S)
}

// Guard returns true if the transition may fire. Guards must not mutate.
type Guard[T any] func(subject T) bool

// Action executes a side effect on the subject.
type Action[T any] func(subject T)

// Transition is one candidate move out of a state for an event.
type Transition[S comparable, T any] struct {
	Target S
	Guards []Guard[T] // all must pass, nil = always
	Action Action[T]  // optional
}

// Node is a registered state with its lifecycle actions.
type Node[S comparable, E comparable, T any] struct {
	State   S
	OnEnter []Action[T]
	OnExit  []Action[T]

	// per event, in evaluation order
	transitions map[E][]Transition[S, T]
}

// Machine maps (state, event) to an ordered list of transitions.
// It is immutable once built and safe to share between subjects.
type Machine[S comparable, E comparable, T Subject[S]] struct {
	nodes map[S]*Node[S, E, T]
	order []S
}

// NewMachine creates an empty machine.
func NewMachine[S comparable, E comparable, T Subject[S]]() *Machine[S, E, T] {
	return &Machine[S, E, T]{
		nodes: make(map[S]*Node[S, E, T]),
	}
}

// AddState registers s, or returns the existing node if already known.
func (m *Machine[S, E, T]) AddState(s S) *Node[S, E, T] {
	if n, ok := m.nodes[s]; ok {
		return n
	}
	n := &Node[S, E, T]{
		State:       s,
		transitions: make(map[E][]Transition[S, T]),
	}
	m.nodes[s] = n
	m.order = append(m.order, s)
	return n
}

// OnEnter appends actions run whenever s is entered.
func (m *Machine[S, E, T]) OnEnter(s S, actions ...Action[T]) {
	n := m.mustNode(s)
	n.OnEnter = append(n.OnEnter, actions...)
}

// OnExit appends actions run whenever s is left.
func (m *Machine[S, E, T]) OnExit(s S, actions ...Action[T]) {
	n := m.mustNode(s)
	n.OnExit = append(n.OnExit, actions...)
}

// AddTransition appends t to the candidates of (from, event). Candidates are
// evaluated in the order they were added.
func (m *Machine[S, E, T]) AddTransition(from S, event E, t Transition[S, T]) {
	n := m.mustNode(from)
	m.mustNode(t.Target)
	n.transitions[event] = append(n.transitions[event], t)
}

// AddTransitions adds the same transition from each state in from.
func (m *Machine[S, E, T]) AddTransitions(from []S, event E, t Transition[S, T]) {
	for _, s := range from {
		m.AddTransition(s, event, t)
	}
}

// States returns the registered states in registration order.
func (m *Machine[S, E, T]) States() []S {
	return append([]S(nil), m.order...)
}

// Has reports whether s is registered.
func (m *Machine[S, E, T]) Has(s S) bool {
	_, ok := m.nodes[s]
	return ok
}

// Handles reports whether any transition is registered for (s, event),
// regardless of guards.
func (m *Machine[S, E, T]) Handles(s S, event E) bool {
	n, ok := m.nodes[s]
	return ok && len(n.transitions[event]) > 0
}

// Dispatch fires the first transition of the subject's current state for
// event whose guards all pass. The old state's exit actions run first, then
// the transition action, then the new state's enter actions, and only then
// is the new state committed on the subject.
// It returns false when nothing fired, which is not an error.
func (m *Machine[S, E, T]) Dispatch(subject T, event E) bool {
	current := m.mustNode(subject.State())

	for _, t := range current.transitions[event] {
		if !passes(t.Guards, subject) {
			continue
		}
		target := m.nodes[t.Target]

		for _, action := range current.OnExit {
			action(subject)
		}
		if t.Action != nil {
			t.Action(subject)
		}
		for _, action := range target.OnEnter {
			action(subject)
		}
		subject.SetState(t.Target)
		return true
	}
	return false
}

func passes[T any](guards []Guard[T], subject T) bool {
	for _, g := range guards {
		if !g(subject) {
			return false
		}
	}
	return true
}

func (m *Machine[S, E, T]) mustNode(s S) *Node[S, E, T] {
	n, ok := m.nodes[s]
	if !ok {
		panic(fmt.Sprintf("fsm: state %v is not registered", s))
	}
	return n
}
