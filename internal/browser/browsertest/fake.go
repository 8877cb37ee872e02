// Package browsertest provides a scriptable in-memory browser.Session for
// tests of code that drives pages.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/resilience"
)

// Node is one fake element. Children are keyed by the selector a caller
// passes to Find/FindAll on this node.
type Node struct {
	Label    string
	Text     string
	Children map[string][]*Node
	// OnClick runs after the click is recorded.
	OnClick func()
	// ClickErr, when set, is returned by Click.
	ClickErr error
}

// Session is a fake browser.Session. Pages are a flat selector→nodes map;
// tests mutate it from OnClick hooks to emulate page transitions. Every
// interaction is appended to Actions.
type Session struct {
	mu sync.Mutex

	Nodes map[string][]*Node
	// WaitMisses makes the next n WaitFor calls for a selector time out
	// even when nodes exist.
	WaitMisses map[string]int
	// ExecFunc answers Execute. Nil returns (nil, nil).
	ExecFunc func(script string, args []any) (any, error)
	// OnNavigate runs after a Navigate is recorded.
	OnNavigate func(url string)
	Dead       bool

	Actions []string
	Waits   map[string]int
}

var _ browser.Session = (*Session)(nil)

// New returns an empty fake session.
func New() *Session {
	return &Session{
		Nodes:      make(map[string][]*Node),
		WaitMisses: make(map[string]int),
		Waits:      make(map[string]int),
	}
}

// Set replaces the nodes matched by selector.
func (s *Session) Set(selector string, nodes ...*Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nodes[selector] = nodes
}

// Remove drops every node matched by selector.
func (s *Session) Remove(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Nodes, selector)
}

// Log returns a copy of the recorded actions.
func (s *Session) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Actions...)
}

// Count returns how many recorded actions equal action.
func (s *Session) Count(action string) int {
	n := 0
	for _, a := range s.Log() {
		if a == action {
			n++
		}
	}
	return n
}

func (s *Session) record(format string, args ...any) {
	s.mu.Lock()
	s.Actions = append(s.Actions, fmt.Sprintf(format, args...))
	s.mu.Unlock()
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.record("navigate %s", url)
	if s.OnNavigate != nil {
		s.OnNavigate(url)
	}
	return nil
}

func (s *Session) WaitFor(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	s.mu.Lock()
	s.Waits[selector]++
	miss := s.WaitMisses[selector] > 0
	if miss {
		s.WaitMisses[selector]--
	}
	nodes := s.Nodes[selector]
	s.mu.Unlock()

	if miss || len(nodes) == 0 {
		return nil, resilience.Timeout(fmt.Errorf("fake: %s absent", selector), "wait for "+selector)
	}
	return &element{s: s, n: nodes[0], sel: selector}, nil
}

func (s *Session) Find(_ context.Context, selector string) (browser.Element, error) {
	s.mu.Lock()
	nodes := s.Nodes[selector]
	s.mu.Unlock()
	if len(nodes) == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &element{s: s, n: nodes[0], sel: selector}, nil
}

func (s *Session) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	s.mu.Lock()
	nodes := append([]*Node(nil), s.Nodes[selector]...)
	s.mu.Unlock()
	return s.wrap(selector, nodes), nil
}

func (s *Session) Execute(_ context.Context, script string, args ...any) (any, error) {
	if s.ExecFunc == nil {
		return nil, nil
	}
	return s.ExecFunc(script, args)
}

func (s *Session) Back(context.Context) error {
	s.record("back")
	return nil
}

func (s *Session) Alive(context.Context) bool {
	return !s.Dead
}

func (s *Session) wrap(selector string, nodes []*Node) []browser.Element {
	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{s: s, n: n, sel: selector})
	}
	return out
}

type element struct {
	s   *Session
	n   *Node
	sel string
}

func (e *element) name() string {
	if e.n.Label != "" {
		return e.n.Label
	}
	return e.sel
}

func (e *element) Text(context.Context) (string, error) {
	return e.n.Text, nil
}

func (e *element) Find(_ context.Context, selector string) (browser.Element, error) {
	nodes := e.n.Children[selector]
	if len(nodes) == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &element{s: e.s, n: nodes[0], sel: selector}, nil
}

func (e *element) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	return e.s.wrap(selector, e.n.Children[selector]), nil
}

func (e *element) Click(context.Context) error {
	e.s.record("click %s", e.name())
	if e.n.ClickErr != nil {
		return e.n.ClickErr
	}
	if e.n.OnClick != nil {
		e.n.OnClick()
	}
	return nil
}

func (e *element) Hover(context.Context) error {
	e.s.record("hover %s", e.name())
	return nil
}

func (e *element) ScrollIntoView(context.Context) error {
	e.s.record("scroll-into-view %s", e.name())
	return nil
}
