package blocks

import (
	"errors"
	"fmt"

	"sklinet.org/web/internal/cms"
)

// ErrDuplicateBlockID is returned when two blocks on one page share an ID.
var ErrDuplicateBlockID = errors.New("blocks: duplicate block id")

// Props are the resolved render inputs of one block.
type Props struct {
	// Item is optional per-block metadata used as SEO fallback for the page.
	Item *cms.MetaItem
	// Data is the block specific view model.
	Data any
}

// Entry is one element of a PropsMap.
type Entry struct {
	ID       string
	Type     string
	Template string
	Props    Props
}

// PropsMap is an insertion-ordered mapping from block ID to its props.
type PropsMap struct {
	order   []string
	entries map[string]Entry
}

// NewPropsMap returns an empty map with room for n blocks.
func NewPropsMap(n int) *PropsMap {
	return &PropsMap{
		order:   make([]string, 0, n),
		entries: make(map[string]Entry, n),
	}
}

// Set appends an entry. Setting an existing ID fails with ErrDuplicateBlockID.
func (m *PropsMap) Set(e Entry) error {
	if m.entries == nil {
		m.entries = map[string]Entry{}
	}
	if _, ok := m.entries[e.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBlockID, e.ID)
	}
	m.order = append(m.order, e.ID)
	m.entries[e.ID] = e
	return nil
}

// Get returns the entry for id.
func (m *PropsMap) Get(id string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	e, ok := m.entries[id]
	return e, ok
}

// Keys returns block IDs in page order.
func (m *PropsMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Entries returns entries in page order.
func (m *PropsMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out
}

// Len returns the number of entries.
func (m *PropsMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// FirstItem returns the Item of the first entry, which may be nil.
func (m *PropsMap) FirstItem() *cms.MetaItem {
	if m.Len() == 0 {
		return nil
	}
	return m.entries[m.order[0]].Props.Item
}

// MatchesBlocks reports whether the keys correspond 1:1, in order, to blocks.
func (m *PropsMap) MatchesBlocks(blocks []cms.Block) bool {
	if m.Len() != len(blocks) {
		return false
	}
	for i, b := range blocks {
		if m.order[i] != b.ID {
			return false
		}
	}
	return true
}
