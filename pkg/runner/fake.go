package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Response is a scripted reply for Fake
type Response struct {
	Result Result
	Err    error
}

// Call records one invocation observed by Fake
type Call struct {
	Name string
	Args []string
}

// Line returns the call as a single space-joined command line
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake is a scripted Runner for tests. Responses are matched by exact
// command line first, then by the longest registered prefix. Unmatched
// commands exit 0 with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	handlers  []fakeHandler
	calls     []Call
}

type fakeHandler struct {
	prefix string
	fn     func(Call) Response
}

// NewFake creates an empty scripted runner
func NewFake() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On registers a response for a command line (or prefix of one)
func (f *Fake) On(line string, res Result, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = Response{Result: res, Err: err}
	return f
}

// Handle registers a dynamic responder for command lines with prefix
func (f *Fake) Handle(prefix string, fn func(Call) Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: prefix, fn: fn})
	return f
}

// Run implements Runner
func (f *Fake) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: append([]string{}, args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	line := call.Line()
	res, exact := f.responses[line]
	var handler func(Call) Response
	best := -1
	if !exact {
		for prefix, r := range f.responses {
			if strings.HasPrefix(line, prefix) && len(prefix) > best {
				res, best = r, len(prefix)
			}
		}
		for _, h := range f.handlers {
			if strings.HasPrefix(line, h.prefix) && len(h.prefix) > best {
				handler, best = h.fn, len(h.prefix)
			}
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	if handler != nil {
		res = handler(call)
	}
	return res.Result, res.Err
}

// Calls returns the invocations observed so far
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

// CallLines returns the observed invocations as command lines
func (f *Fake) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// Reset forgets recorded calls, keeping scripted responses
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
