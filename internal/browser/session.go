// Package browser defines the page-automation capability the pipeline
// drives, with a live implementation over Chrome (go-rod) and an offline
// implementation that replays saved HTML pages (goquery).
//
// Locators are CSS selectors. Lookups that find nothing return an error
// wrapping resilience.ErrElementNotFound; bounded waits that expire return
// an error wrapping resilience.ErrNavigationTimeout.
package browser

import (
	"context"
	"time"
)

// Element is a handle to one node of the current page.
type Element interface {
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	// Find returns the first descendant matching selector.
	Find(ctx context.Context, selector string) (Element, error)
	// FindAll returns every descendant matching selector, possibly none.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// Click dispatches a script-level click on the node.
	Click(ctx context.Context) error
	Hover(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
}

// Session is a live page owned by the caller. Implementations are not safe
// for concurrent use; a session serves one run at a time.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// Find returns the first match of selector without waiting.
	Find(ctx context.Context, selector string) (Element, error)
	// FindAll returns every match of selector without waiting.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// Execute evaluates a JavaScript function expression such as
	// "(y) => window.scrollTo(0, y)" with args and returns its JSON value.
	Execute(ctx context.Context, script string, args ...any) (any, error)
	// Back goes one step back in the page history.
	Back(ctx context.Context) error
	// Alive reports whether the session can still serve commands.
	Alive(ctx context.Context) bool
}
