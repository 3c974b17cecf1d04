package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// glamour.TermRenderer must not be shared between concurrent Render calls, so
// each option set gets its own sync.Pool and renderers are checked out per call.
var renderers = struct {
	sync.Mutex
	byOpts map[Options]*sync.Pool
}{byOpts: map[Options]*sync.Pool{}}

// cacheKey normalizes opts into the key of its renderer pool.
func cacheKey(opts Options) Options {
	if opts.Width < 0 {
		opts.Width = 0
	}
	return opts
}

func poolFor(opts Options) *sync.Pool {
	key := cacheKey(opts)

	renderers.Lock()
	defer renderers.Unlock()
	if p, ok := renderers.byOpts[key]; ok {
		return p
	}
	p := &sync.Pool{}
	renderers.byOpts[key] = p
	return p
}

// acquire borrows a renderer for opts, building one when the pool is empty.
func acquire(opts Options) (*glamour.TermRenderer, *sync.Pool, error) {
	p := poolFor(opts)
	if r, ok := p.Get().(*glamour.TermRenderer); ok {
		return r, p, nil
	}
	r, err := newRenderer(cacheKey(opts))
	if err != nil {
		return nil, nil, err
	}
	return r, p, nil
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := glamour.WithStylePath(opts.Style)
	if IsStandardStyle(opts.Style) {
		style = glamour.WithStandardStyle(opts.Style)
	}

	ropts := []glamour.TermRendererOption{
		style,
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	renderers.Lock()
	renderers.byOpts = map[Options]*sync.Pool{}
	renderers.Unlock()
}

// CacheSize returns how many distinct option sets have a pool.
func CacheSize() int {
	renderers.Lock()
	defer renderers.Unlock()
	return len(renderers.byOpts)
}
