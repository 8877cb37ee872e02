package browser

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/showtimes-cli/internal/resilience"
)

// IndexPage is the snapshot key served for URLs with no page of their own.
const IndexPage = "index"

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// SnapshotKey maps a URL to the key of its saved page: host and path,
// lower-cased, with every run of other characters replaced by "_".
// "https://www.pathe.sn/fr/cinemas" becomes "www_pathe_sn_fr_cinemas".
func SnapshotKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	s := raw
	if err == nil && u.Host != "" {
		s = u.Host + u.Path
	}
	return strings.Trim(nonKeyChars.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// Snapshot replays saved HTML pages. Scripts are not executed; Execute
// returns nil, so scroll metrics read as zero and clicks only follow links
// whose target page was saved. It lets a run be reproduced offline from
// pages captured earlier.
type Snapshot struct {
	pages   map[string][]byte
	doc     *goquery.Document
	current visit
	history []visit
	closed  bool
}

type visit struct {
	key string
	url string
}

var _ Session = (*Snapshot)(nil)

// NewSnapshot creates a session over pages keyed by SnapshotKey.
func NewSnapshot(pages map[string][]byte) *Snapshot {
	return &Snapshot{pages: pages}
}

// LoadSnapshotDir reads every *.html file of dir, keyed by file name
// without the extension.
func LoadSnapshotDir(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(resilience.ErrSessionUnavailable, "snapshot: read dir %s: %v", dir, err)
	}
	pages := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: read %s", e.Name())
		}
		pages[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = data
	}
	if len(pages) == 0 {
		return nil, eris.Wrapf(resilience.ErrSessionUnavailable, "snapshot: no .html pages in %s", dir)
	}
	return NewSnapshot(pages), nil
}

// Close marks the session dead.
func (s *Snapshot) Close() error {
	s.closed = true
	return nil
}

// Page returns the key of the page currently loaded.
func (s *Snapshot) Page() string { return s.current.key }

func (s *Snapshot) load(v visit) error {
	data, ok := s.pages[v.key]
	if !ok {
		return resilience.Timeout(eris.Errorf("no saved page %q", v.key), "snapshot navigate")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return eris.Wrapf(err, "snapshot: parse page %q", v.key)
	}
	s.doc = doc
	s.current = v
	return nil
}

func (s *Snapshot) push(v visit) error {
	prev := s.current
	if err := s.load(v); err != nil {
		return err
	}
	if prev.key != "" {
		s.history = append(s.history, prev)
	}
	return nil
}

func (s *Snapshot) resolve(raw string) (string, bool) {
	key := SnapshotKey(raw)
	if _, ok := s.pages[key]; ok {
		return key, true
	}
	return "", false
}

// Navigate loads the saved page of rawURL, falling back to IndexPage.
func (s *Snapshot) Navigate(_ context.Context, rawURL string) error {
	key, ok := s.resolve(rawURL)
	if !ok {
		key = IndexPage
	}
	return s.push(visit{key: key, url: rawURL})
}

// WaitFor does not wait; saved pages never change.
func (s *Snapshot) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	el, err := s.Find(ctx, selector)
	if err != nil {
		return nil, resilience.Timeout(err, "wait for "+selector)
	}
	return el, nil
}

func (s *Snapshot) Find(_ context.Context, selector string) (Element, error) {
	if s.doc == nil {
		return nil, resilience.NotFound(selector)
	}
	sel := s.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &snapElement{s: s, sel: sel.First()}, nil
}

func (s *Snapshot) FindAll(_ context.Context, selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, nil
	}
	return s.wrap(s.doc.Find(selector)), nil
}

func (s *Snapshot) Execute(context.Context, string, ...any) (any, error) {
	return nil, nil
}

func (s *Snapshot) Back(context.Context) error {
	if len(s.history) == 0 {
		return eris.New("snapshot: no history")
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return s.load(prev)
}

func (s *Snapshot) Alive(context.Context) bool {
	return !s.closed && len(s.pages) > 0
}

func (s *Snapshot) wrap(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		out = append(out, &snapElement{s: s, sel: node})
	})
	return out
}

type snapElement struct {
	s   *Snapshot
	sel *goquery.Selection
}

func (e *snapElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *snapElement) Find(_ context.Context, selector string) (Element, error) {
	sel := e.sel.Find(selector)
	if sel.Length() == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &snapElement{s: e.s, sel: sel.First()}, nil
}

func (e *snapElement) FindAll(_ context.Context, selector string) ([]Element, error) {
	return e.s.wrap(e.sel.Find(selector)), nil
}

// Click follows the href of the node, or of its closest link ancestor,
// when that page was saved. Any other click is a no-op.
func (e *snapElement) Click(ctx context.Context) error {
	link := e.sel.Closest("a[href]")
	href, ok := link.Attr("href")
	if !ok {
		return nil
	}
	target := e.s.absolute(href)
	if key, ok := e.s.resolve(target); ok && key != e.s.current.key {
		return e.s.push(visit{key: key, url: target})
	}
	return nil
}

func (e *snapElement) Hover(context.Context) error          { return nil }
func (e *snapElement) ScrollIntoView(context.Context) error { return nil }

// absolute resolves relative links against the URL of the current page.
func (s *Snapshot) absolute(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() {
		return href
	}
	base, err := url.Parse(s.current.url)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
