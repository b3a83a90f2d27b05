// Package wiretest provides test doubles for the httpwire dispatch pipeline:
// a scripted MockTransport standing in for network I/O and a Probe
// interceptor recording how far a chain was traversed.
package wiretest

import (
	"context"
	"fmt"
	"sync"

	"github.com/marrek/httpwire/interceptors"
	"github.com/marrek/httpwire/wire"
)

// Expectation is one scripted exchange on a MockTransport
type Expectation struct {
	method string
	url    string
	events []wire.Event
	err    error
}

// Respond scripts a single terminal response with the given status and body
func (e *Expectation) Respond(status int, body []byte) *Expectation {
	e.events = []wire.Event{&wire.Response{
		Status: status,
		Header: wire.NewHeader(),
		Body:   body,
		URL:    e.url,
	}}
	return e
}

// Events scripts an explicit event sequence
func (e *Expectation) Events(events ...wire.Event) *Expectation {
	e.events = events
	return e
}

// Fail scripts a terminal failure event
func (e *Expectation) Fail(err error) *Expectation {
	e.events = []wire.Event{&wire.Failure{Err: err}}
	return e
}

// Refuse scripts a synchronous dispatch error (nil stream)
func (e *Expectation) Refuse(err error) *Expectation {
	e.err = err
	return e
}

// MockTransport is a scripted terminal handler. Expectations are consumed
// in FIFO order per method+URL; a dispatch with no matching expectation
// produces a failure stream. All methods are safe for concurrent use.
type MockTransport struct {
	mu           sync.Mutex
	expectations []*Expectation
	requests     []*wire.Request
	calls        int
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Expect queues an expectation for the given method and URL. The returned
// expectation responds 200 with an empty body until scripted otherwise.
func (m *MockTransport) Expect(method, url string) *Expectation {
	e := &Expectation{method: method, url: url}
	e.Respond(200, nil)
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return e
}

// Handle implements interceptors.Handler
func (m *MockTransport) Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)

	var matched *Expectation
	for idx, e := range m.expectations {
		if e.method == req.Method() && e.url == req.URLString() {
			matched = e
			m.expectations = append(m.expectations[:idx], m.expectations[idx+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if matched == nil {
		return wire.Fail(fmt.Errorf("wiretest: unexpected request %s %s", req.Method(), req.URLString())), nil
	}
	if matched.err != nil {
		return nil, matched.err
	}
	return wire.Emit(matched.events...), nil
}

// Requests returns the requests received so far
func (m *MockTransport) Requests() []*wire.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*wire.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many dispatches reached the transport
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ExpectationsMet returns an error naming any unconsumed expectation
func (m *MockTransport) ExpectationsMet() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.expectations) > 0 {
		e := m.expectations[0]
		return fmt.Errorf("wiretest: %d unmet expectations, first: %s %s", len(m.expectations), e.method, e.url)
	}
	return nil
}

// Probe is an interceptor recording traversal. It appends its label to a
// shared order log on the request path, tags response events on the way
// back, and counts invocations, which makes chain ordering and
// short-circuit behavior observable in tests.
type Probe struct {
	label string

	mu    sync.Mutex
	order *[]string
	calls int
}

// NewProbe creates a probe with its own private order log
func NewProbe(label string) *Probe {
	order := make([]string, 0, 4)
	return &Probe{label: label, order: &order}
}

// NewOrderedProbe creates a probe appending to a shared order log so
// multiple probes can reconstruct traversal order
func NewOrderedProbe(label string, order *[]string) *Probe {
	return &Probe{label: label, order: order}
}

// Intercept implements interceptors.Interceptor
func (p *Probe) Intercept(ctx context.Context, req *wire.Request, next interceptors.Handler) (<-chan wire.Event, error) {
	p.mu.Lock()
	p.calls++
	*p.order = append(*p.order, p.label+">")
	p.mu.Unlock()

	stream, err := next.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return wire.Pipe(ctx, stream, func(ev wire.Event) wire.Event {
		if wire.IsTerminal(ev) {
			p.mu.Lock()
			*p.order = append(*p.order, "<"+p.label)
			p.mu.Unlock()
		}
		return ev
	}), nil
}

// Name implements interceptors.Interceptor
func (p *Probe) Name() string {
	return "Probe(" + p.label + ")"
}

// Calls returns how many times the probe was invoked
func (p *Probe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Order returns a copy of the order log
func (p *Probe) Order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(*p.order))
	copy(out, *p.order)
	return out
}
