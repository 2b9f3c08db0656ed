// Package navigator tracks the ordered concept keys of a topic page and the
// current selection.
package navigator

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNotFound is returned for a selection index outside the key range.
	ErrNotFound = errors.New("concept not found")
	// ErrEmpty is returned when there is nothing to navigate.
	ErrEmpty = errors.New("no concepts to navigate")
)

// Unselected is the selected index before any concept has been chosen.
const Unselected = -1

// Selection identifies a selected concept. Generation increases with every
// successful selection; async work tagged with an older generation is stale.
type Selection struct {
	Index      int
	Key        string
	Generation uint64
}

// Item is one entry of the rendered navigation list.
type Item struct {
	Key    string
	Label  string
	Active bool
}

// Navigator holds the navigable keys and the selected index. Subscribers are
// called synchronously, outside the lock, after each selection change.
type Navigator struct {
	mu          sync.Mutex
	keys        []string
	selected    int
	generation  uint64
	subscribers []func(Selection)
}

// New creates an empty navigator.
func New() *Navigator {
	return &Navigator{selected: Unselected}
}

// Initialize replaces the navigable keys and clears the selection.
func (n *Navigator) Initialize(keys []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = slices.Clone(keys)
	n.selected = Unselected
}

// Subscribe registers fn to be called on every selection change.
func (n *Navigator) Subscribe(fn func(Selection)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, fn)
}

// SelectByIndex selects the key at i. Out-of-range requests change nothing.
func (n *Navigator) SelectByIndex(i int) (Selection, error) {
	n.mu.Lock()
	if i < 0 || i >= len(n.keys) {
		size := len(n.keys)
		n.mu.Unlock()
		return Selection{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, i, size)
	}
	sel := n.selectLocked(i)
	subs := slices.Clone(n.subscribers)
	n.mu.Unlock()

	notify(subs, sel)
	return sel, nil
}

// SelectNext advances to the next key, wrapping past the last one. With no
// selection yet it selects the first key.
func (n *Navigator) SelectNext() (Selection, error) {
	n.mu.Lock()
	if len(n.keys) == 0 {
		n.mu.Unlock()
		return Selection{}, ErrEmpty
	}
	sel := n.selectLocked((n.selected + 1) % len(n.keys))
	subs := slices.Clone(n.subscribers)
	n.mu.Unlock()

	notify(subs, sel)
	return sel, nil
}

func (n *Navigator) selectLocked(i int) Selection {
	n.selected = i
	n.generation++
	return Selection{Index: i, Key: n.keys[i], Generation: n.generation}
}

// Current returns the current selection, false when nothing is selected.
func (n *Navigator) Current() (Selection, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.selected == Unselected {
		return Selection{}, false
	}
	return Selection{Index: n.selected, Key: n.keys[n.selected], Generation: n.generation}, true
}

// IsCurrent reports whether generation still identifies the live selection.
func (n *Navigator) IsCurrent(generation uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selected != Unselected && n.generation == generation
}

// Len returns the number of keys.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.keys)
}

// Keys returns a copy of the keys in order.
func (n *Navigator) Keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.keys)
}

// Items renders the navigation list. label maps a key to its display text.
func (n *Navigator) Items(label func(key string) string) []Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	items := make([]Item, len(n.keys))
	for i, key := range n.keys {
		text := key
		if label != nil {
			text = label(key)
		}
		items[i] = Item{Key: key, Label: text, Active: i == n.selected}
	}
	return items
}

func notify(subs []func(Selection), sel Selection) {
	for _, fn := range subs {
		fn(sel)
	}
}
