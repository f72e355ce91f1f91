package pagination

import (
	"context"
	"log/slog"
)

// Source reads attributes from the hosted document. Implementations must
// resolve selector afresh on every call.
type Source interface {
	Attribute(ctx context.Context, selector, name string) (value string, found bool, err error)
}

// InspectorConfig locates the range descriptor.
type InspectorConfig struct {
	Control   string // selector of the range control
	Attribute string // attribute carrying the descriptor; default "title"
	PageSize  int    // 0 derives from the descriptor
	Logger    *slog.Logger
}

func (c *InspectorConfig) defaults() {
	if c.Attribute == "" {
		c.Attribute = "title"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Inspector derives pager state from the range control.
type Inspector struct {
	src Source
	cfg InspectorConfig
}

// NewInspector creates an Inspector reading from src.
func NewInspector(src Source, cfg InspectorConfig) *Inspector {
	cfg.defaults()
	return &Inspector{src: src, cfg: cfg}
}

// Inspect reads the pager. An absent control, absent attribute, read error
// or unparseable descriptor all yield Single(): the page is treated as the
// only one rather than failing the search.
func (i *Inspector) Inspect(ctx context.Context) State {
	log := i.cfg.Logger
	if i.cfg.Control == "" {
		return Single()
	}

	desc, found, err := i.src.Attribute(ctx, i.cfg.Control, i.cfg.Attribute)
	if err != nil {
		log.Warn("pagination: read range control failed", "control", i.cfg.Control, "error", err)
		return Single()
	}
	if !found || desc == "" {
		log.Debug("pagination: no range control", "control", i.cfg.Control)
		return Single()
	}

	r, ok := ParseRange(desc)
	if !ok {
		log.Warn("pagination: malformed range descriptor", "control", i.cfg.Control, "descriptor", desc)
		return Single()
	}

	st := Derive(r, i.cfg.PageSize)
	st.Control = i.cfg.Control
	return st
}

// Sizer carries the page size across the readings of one traversal. A
// short final range cannot reveal the size on its own, so the size of an
// earlier full range is reused for it. The zero value is ready to use; a
// Sizer must not outlive the traversal that owns it.
type Sizer struct {
	size int
}

// Apply returns st, re-derived with the remembered size when st is a
// short final range.
func (z *Sizer) Apply(st State) State {
	if !st.HasPages {
		return st
	}
	if st.End < st.Total {
		z.size = st.PageSize
		return st
	}
	if z.size <= 0 || st.Start == 1 || st.PageSize == z.size {
		return st
	}
	out := Derive(st.Range(), z.size)
	out.Control = st.Control
	return out
}
