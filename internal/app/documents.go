package app

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/theSKAILab/TART/internal/document"
)

// DocumentManager tracks the open documents by absolute path.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*document.Document
	order     []string
	active    string
}

// NewDocumentManager creates an empty document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*document.Document),
	}
}

// key normalizes a path into a manager key.
func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// Add registers doc under path and makes it active.
func (dm *DocumentManager) Add(path string, doc *document.Document) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	k := key(path)
	if _, ok := dm.documents[k]; ok {
		return NewOperationError("open", path, ErrDocumentAlreadyOpen)
	}
	dm.documents[k] = doc
	dm.order = append(dm.order, k)
	dm.active = k
	return nil
}

// Get returns the document open at path.
func (dm *DocumentManager) Get(path string) (*document.Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.documents[key(path)]
	return doc, ok
}

// Close forgets the document at path. The next remaining document becomes
// active.
func (dm *DocumentManager) Close(path string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	k := key(path)
	if _, ok := dm.documents[k]; !ok {
		return NewOperationError("close", path, ErrDocumentNotFound)
	}
	delete(dm.documents, k)
	for i, p := range dm.order {
		if p == k {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			if dm.active == k {
				dm.active = ""
				if len(dm.order) > 0 {
					dm.active = dm.order[min(i, len(dm.order)-1)]
				}
			}
			break
		}
	}
	return nil
}

// CloseAll forgets every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.documents = make(map[string]*document.Document)
	dm.order = nil
	dm.active = ""
}

// Active returns the most recently opened or selected document, or nil.
func (dm *DocumentManager) Active() *document.Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[dm.active]
}

// SetActiveByPath selects the document at path.
func (dm *DocumentManager) SetActiveByPath(path string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	k := key(path)
	if _, ok := dm.documents[k]; !ok {
		return NewOperationError("select", path, ErrDocumentNotFound)
	}
	dm.active = k
	return nil
}

// All returns the open documents in the order they were opened.
func (dm *DocumentManager) All() []*document.Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	out := make([]*document.Document, 0, len(dm.order))
	for _, k := range dm.order {
		out = append(out, dm.documents[k])
	}
	return out
}

// Paths returns the sorted paths of the open documents.
func (dm *DocumentManager) Paths() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	out := make([]string, 0, len(dm.documents))
	for k := range dm.documents {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// Modified returns the paths of documents with unsaved changes.
func (dm *DocumentManager) Modified() []string {
	var out []string
	for _, k := range dm.Paths() {
		if doc, ok := dm.Get(k); ok && doc.Modified() {
			out = append(out, k)
		}
	}
	return out
}
