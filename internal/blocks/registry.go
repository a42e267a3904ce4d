// Package blocks maps CMS block types to their props resolvers and templates.
package blocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
)

// UnknownTemplate renders blocks whose type is not registered.
const UnknownTemplate = "block/unknown"

// Context carries what props resolvers may need besides the block itself.
type Context struct {
	Locale       string
	LocalePrefix string
	Preview      bool
	Calendar     *calendar.Formatter
	Page         *cms.Page
	Now          time.Time
}

// PropsFunc resolves the props of a single block.
type PropsFunc func(ctx context.Context, bc Context, b cms.Block) (Props, error)

// Definition binds a block type to its template and props resolver.
type Definition struct {
	Type     string
	Template string
	Props    PropsFunc
}

// Registry holds the known block definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry creates a registry with the given definitions.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: map[string]Definition{}}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Types must be unique.
func (r *Registry) Register(d Definition) error {
	typ := strings.TrimSpace(d.Type)
	if typ == "" {
		return fmt.Errorf("blocks: definition without type")
	}
	if _, ok := r.defs[typ]; ok {
		return fmt.Errorf("blocks: type %q already registered", typ)
	}
	if d.Template == "" {
		d.Template = "block/" + typ
	}
	d.Type = typ
	r.defs[typ] = d
	return nil
}

// Lookup returns the definition for typ.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	d, ok := r.defs[typ]
	return d, ok
}

// Types lists registered block types in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for t := range r.defs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Resolve computes props for every block, preserving page order. Unknown
// types keep their raw data and render with UnknownTemplate.
func (r *Registry) Resolve(ctx context.Context, bc Context, blocks []cms.Block) (*PropsMap, error) {
	if bc.Now.IsZero() {
		bc.Now = time.Now()
	}
	m := NewPropsMap(len(blocks))
	for _, b := range blocks {
		entry := Entry{ID: b.ID, Type: b.Type, Template: UnknownTemplate, Props: Props{Data: b.Data}}
		if d, ok := r.defs[b.Type]; ok {
			entry.Template = d.Template
			if d.Props != nil {
				props, err := d.Props(ctx, bc, b)
				if err != nil {
					return nil, fmt.Errorf("blocks: resolve %s %q: %w", b.Type, b.ID, err)
				}
				entry.Props = props
			}
		}
		if err := m.Set(entry); err != nil {
			return nil, err
		}
	}
	return m, nil
}
