// Package store assembles memory documents into one logical fact space
// and owns their persistence.
//
// A Store is a root document plus the topic documents its frontmatter
// includes. Inclusion is two-level, never recursive: topic documents
// may not include further documents. Loading is eager and fails closed;
// a missing or absolute include path aborts the whole load.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/driftwatch/internal/codec"
	"github.com/roach88/driftwatch/internal/memory"
)

// Document is one memory file: an opaque metadata block plus an ordered
// sequence of facts. Fact order is insertion order and survives
// load/store cycles.
type Document struct {
	Meta  map[string]any
	Facts []memory.Fact
	Path  string
}

// Topic pairs an included document with the relative path that names it
// in the root's inclusion list.
type Topic struct {
	Rel string
	Doc *Document
}

// Store is a root document plus its included topic documents, in
// inclusion order.
type Store struct {
	Root   *Document
	Topics []Topic
}

// ReadDocument parses one memory file.
func ReadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	meta, body, err := codec.SplitFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	facts, err := codec.ParseBody(body)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return &Document{Meta: meta, Facts: facts, Path: path}, nil
}

// Includes returns the ordered inclusion list from a document's
// metadata. Absent or empty lists yield nil.
func (d *Document) Includes() []string {
	raw, ok := d.Meta["includes"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var rels []string
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			rels = append(rels, s)
		}
	}
	return rels
}

// AddInclude appends a relative path to the inclusion list if it is not
// already present.
func (d *Document) AddInclude(rel string) {
	for _, existing := range d.Includes() {
		if existing == rel {
			return
		}
	}
	if d.Meta == nil {
		d.Meta = map[string]any{}
	}
	raw, _ := d.Meta["includes"].([]any)
	d.Meta["includes"] = append(raw, any(rel))
}

// ReadStore loads a root document and, eagerly, every document it
// includes. Include paths must be relative; they resolve against the
// root's directory. A missing included file is a hard load error.
func ReadStore(rootPath string) (*Store, error) {
	root, err := ReadDocument(rootPath)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(rootPath)
	st := &Store{Root: root}
	for _, rel := range root.Includes() {
		if filepath.IsAbs(rel) {
			return nil, fmt.Errorf("read store: absolute path in includes: %s", rel)
		}
		topicPath := filepath.Join(baseDir, rel)
		if _, err := os.Stat(topicPath); err != nil {
			return nil, fmt.Errorf("read store: included file not found: %s", rel)
		}
		doc, err := ReadDocument(topicPath)
		if err != nil {
			return nil, err
		}
		st.Topics = append(st.Topics, Topic{Rel: rel, Doc: doc})
	}
	return st, nil
}

// BaseDir is the directory all relative paths resolve against.
func (s *Store) BaseDir() string {
	return filepath.Dir(s.Root.Path)
}

// AllFacts returns pointers to every fact in the store: root facts
// first, then each topic's facts in inclusion order. Mutations through
// the returned pointers are visible on the next Write.
func (s *Store) AllFacts() []*memory.Fact {
	var facts []*memory.Fact
	for i := range s.Root.Facts {
		facts = append(facts, &s.Root.Facts[i])
	}
	for _, t := range s.Topics {
		for i := range t.Doc.Facts {
			facts = append(facts, &t.Doc.Facts[i])
		}
	}
	return facts
}

// AllDocuments returns every document in the store, topics first and
// the root last. The ordering matches Write: topics are persisted
// before the root so a failed topic write never leaves the root
// referencing state that was not written.
func (s *Store) AllDocuments() []*Document {
	docs := make([]*Document, 0, len(s.Topics)+1)
	for _, t := range s.Topics {
		docs = append(docs, t.Doc)
	}
	return append(docs, s.Root)
}

// FindByID returns the fact with the given id, or nil.
func (s *Store) FindByID(id string) *memory.Fact {
	for _, f := range s.AllFacts() {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Write persists every document, topics before root.
func (s *Store) Write(backup bool) error {
	for _, doc := range s.AllDocuments() {
		if err := doc.Write(backup); err != nil {
			return err
		}
	}
	return nil
}
