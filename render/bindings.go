package render

import (
	"sort"
	"sync"
)

// Bindings records which open pages currently show which elements, so a
// patch for an element is only sent where it is displayed.
//
// Attaching the same element twice is a no-op. A page that re-renders its
// feed from scratch calls DetachAll first, which drops everything it had
// bound before.
type Bindings struct {
	mu        sync.Mutex
	byElement map[string]map[string]struct{} // element id -> page ids
	byPage    map[string]map[string]struct{} // page id -> element ids
}

// NewBindings returns an empty registry.
func NewBindings() *Bindings {
	return &Bindings{
		byElement: make(map[string]map[string]struct{}),
		byPage:    make(map[string]map[string]struct{}),
	}
}

// Attach binds elementIDs to pageID.
func (b *Bindings) Attach(pageID string, elementIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elems, ok := b.byPage[pageID]
	if !ok {
		elems = make(map[string]struct{})
		b.byPage[pageID] = elems
	}
	for _, id := range elementIDs {
		elems[id] = struct{}{}
		pages, ok := b.byElement[id]
		if !ok {
			pages = make(map[string]struct{})
			b.byElement[id] = pages
		}
		pages[pageID] = struct{}{}
	}
}

// Detach unbinds a single element from every page, used when the element
// no longer exists.
func (b *Bindings) Detach(elementID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for pageID := range b.byElement[elementID] {
		delete(b.byPage[pageID], elementID)
	}
	delete(b.byElement, elementID)
}

// DetachAll drops every binding of pageID.
func (b *Bindings) DetachAll(pageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := range b.byPage[pageID] {
		pages := b.byElement[id]
		delete(pages, pageID)
		if len(pages) == 0 {
			delete(b.byElement, id)
		}
	}
	delete(b.byPage, pageID)
}

// Subscribers returns the pages bound to elementID, sorted.
func (b *Bindings) Subscribers(elementID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	pages := make([]string, 0, len(b.byElement[elementID]))
	for p := range b.byElement[elementID] {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages
}

// Count returns how many elements pageID has bound.
func (b *Bindings) Count(pageID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byPage[pageID])
}
