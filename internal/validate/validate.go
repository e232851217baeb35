// Package validate runs the lint-time checks over documents and stores.
// Checks collect every error they find rather than failing fast; the
// caller reports the whole list together and decides the exit status.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/driftwatch/internal/schema"
	"github.com/roach88/driftwatch/internal/store"
)

// Validation error codes (D100-D199).
const (
	ErrWrongID          = "D101" // id does not match the identity function
	ErrDuplicateKey     = "D102" // duplicate (scope, key) within a document
	ErrUnknownKey       = "D103" // key not present in the schema
	ErrRefTargetMissing = "D104" // ref target file not found
	ErrRefAnchorMissing = "D105" // ref anchor not found in target file
	ErrDuplicateID      = "D106" // same id in more than one document
	ErrFileTooLong      = "D107" // document exceeds the line budget
)

// MaxDocumentLines is the soft cap a memory file is linted against;
// anything bigger belongs in topic files.
const MaxDocumentLines = 200

// Error is one validation finding.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// CheckIDs verifies every fact's id against the identity function.
func CheckIDs(doc *store.Document) []Error {
	var errs []Error
	for i := range doc.Facts {
		f := &doc.Facts[i]
		if derived := f.DerivedID(); f.ID != derived {
			errs = append(errs, Error{
				Field:   f.Key,
				Message: fmt.Sprintf("wrong id: %s should be %s", f.ID, derived),
				Code:    ErrWrongID,
			})
		}
	}
	return errs
}

// CheckDuplicateKeys finds repeated (scope, key) pairs in one document.
func CheckDuplicateKeys(doc *store.Document) []Error {
	var errs []Error
	seen := map[string]bool{}
	for i := range doc.Facts {
		f := &doc.Facts[i]
		scopeKey := f.Scope.String() + "\x00" + f.Key
		if seen[scopeKey] {
			errs = append(errs, Error{
				Field:   f.Key,
				Message: fmt.Sprintf("duplicate key in scope %s", f.Scope),
				Code:    ErrDuplicateKey,
			})
		}
		seen[scopeKey] = true
	}
	return errs
}

// CheckSchemaKeys reports keys the schema does not know (canonical or
// alias).
func CheckSchemaKeys(doc *store.Document, sch *schema.Schema) []Error {
	var errs []Error
	for i := range doc.Facts {
		f := &doc.Facts[i]
		if _, ok := sch.Resolve(f.Key); !ok {
			errs = append(errs, Error{
				Field:   f.Key,
				Message: "unknown key: not in schema",
				Code:    ErrUnknownKey,
			})
		}
	}
	return errs
}

// CheckRefs validates every fact's cross-document pointer: the target
// file must exist under baseDir, and the anchor (when present) must
// match some fact's id or key inside it.
func CheckRefs(doc *store.Document, baseDir string) []Error {
	var errs []Error
	for i := range doc.Facts {
		f := &doc.Facts[i]
		if f.Ref == "" {
			continue
		}
		for _, e := range checkRef(f.Ref, baseDir) {
			e.Field = f.Key
			errs = append(errs, e)
		}
	}
	return errs
}

func checkRef(ref, baseDir string) []Error {
	filePart, anchor, hasAnchor := strings.Cut(ref, "#")

	targetPath := filepath.Join(baseDir, filePart)
	if _, err := os.Stat(targetPath); err != nil {
		return []Error{{
			Message: fmt.Sprintf("ref target file not found: %s", filePart),
			Code:    ErrRefTargetMissing,
		}}
	}
	if !hasAnchor {
		return nil
	}

	target, err := store.ReadDocument(targetPath)
	if err != nil {
		return []Error{{
			Message: fmt.Sprintf("ref target unreadable: %v", err),
			Code:    ErrRefTargetMissing,
		}}
	}
	for i := range target.Facts {
		if target.Facts[i].ID == anchor || target.Facts[i].Key == anchor {
			return nil
		}
	}
	return []Error{{
		Message: fmt.Sprintf("ref anchor not found in %s: %s", filePart, anchor),
		Code:    ErrRefAnchorMissing,
	}}
}

// CheckCrossFileIDs reports fact ids that appear in more than one
// document of the store, naming both the first and the duplicate
// location.
func CheckCrossFileIDs(st *store.Store) []Error {
	var errs []Error
	seen := map[string]string{} // id -> first file
	for _, doc := range st.AllDocuments() {
		for i := range doc.Facts {
			f := &doc.Facts[i]
			if first, dup := seen[f.ID]; dup {
				errs = append(errs, Error{
					Field:   f.Key,
					Message: fmt.Sprintf("duplicate id %s in %s (first seen in %s)", f.ID, doc.Path, first),
					Code:    ErrDuplicateID,
				})
				continue
			}
			seen[f.ID] = doc.Path
		}
	}
	return errs
}

// CheckLength flags files over the line budget.
func CheckLength(path string) []Error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if lines := strings.Count(string(raw), "\n") + 1; lines > MaxDocumentLines {
		return []Error{{
			Message: fmt.Sprintf("file exceeds %d lines (%d lines)", MaxDocumentLines, lines),
			Code:    ErrFileTooLong,
		}}
	}
	return nil
}
