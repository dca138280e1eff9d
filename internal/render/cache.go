package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// termRenderers lends glamour renderers out per option set. A TermRenderer
// must not serve two Render calls at once, so each call borrows its own.
type termRenderers struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
}

var renderers = newTermRenderers()

func newTermRenderers() *termRenderers {
	return &termRenderers{pools: make(map[Options]*sync.Pool)}
}

func (r *termRenderers) pool(opts Options) *sync.Pool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[opts]
	if !ok {
		p = &sync.Pool{}
		r.pools[opts] = p
	}
	return p
}

// render borrows a renderer for opts, building one when the pool is empty.
// Renderers that fail to build are never pooled.
func (r *termRenderers) render(content string, opts Options) (string, error) {
	tr, _ := r.pool(opts).Get().(*glamour.TermRenderer)
	if tr == nil {
		var err error
		if tr, err = newTermRenderer(opts); err != nil {
			return "", err
		}
	}
	defer r.pool(opts).Put(tr)

	return tr.Render(content)
}

// size reports how many option sets have a pool
func (r *termRenderers) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

func (r *termRenderers) reset() {
	r.mu.Lock()
	r.pools = make(map[Options]*sync.Pool)
	r.mu.Unlock()
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		styleOption(opts.Style),
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
