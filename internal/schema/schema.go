// Package schema maps logical fact keys to the ordered verification
// source identifiers that can check them.
//
// The schema document is YAML; before use it is unified against an
// embedded CUE definition, so a malformed schema (a scalar where a list
// belongs, an unknown field) is a structured load error rather than a
// silent misread.
package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// schemaCUE constrains the decoded schema document.
const schemaCUE = `
#Schema: {
	keys?: [string]: {
		type:     *"string" | "path" | "url" | "bool" | "int"
		sources?: [...string]
		aliases?: [...string]
	}
}
`

// KeyDef describes one canonical key: its value type, the ordered
// source identifiers able to verify it, and any alias names.
type KeyDef struct {
	CanonicalKey string
	Type         string   `yaml:"type"`
	Sources      []string `yaml:"sources"`
	Aliases      []string `yaml:"aliases"`
}

// Schema resolves canonical and alias key names to their definitions.
type Schema struct {
	keys    map[string]KeyDef
	aliases map[string]string
}

type schemaDoc struct {
	Keys map[string]KeyDef `yaml:"keys"`
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}

	var doc schemaDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return New(doc.Keys), nil
}

// New builds a schema from key definitions.
func New(keys map[string]KeyDef) *Schema {
	s := &Schema{keys: map[string]KeyDef{}, aliases: map[string]string{}}
	for name, def := range keys {
		def.CanonicalKey = name
		s.keys[name] = def
		s.aliases[name] = name
		for _, alias := range def.Aliases {
			s.aliases[alias] = name
		}
	}
	return s
}

// validateSchema unifies the decoded YAML document with the embedded
// CUE definition and reports any constraint violations.
func validateSchema(raw []byte) error {
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}

	ctx := cuecontext.New()
	compiled := ctx.CompileString(schemaCUE)
	if err := compiled.Err(); err != nil {
		return fmt.Errorf("internal schema definition: %w", err)
	}
	def := compiled.LookupPath(cue.ParsePath("#Schema"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("internal schema definition: %w", err)
	}

	unified := def.Unify(ctx.Encode(data))
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("schema validation: %s", errors.Details(err, nil))
	}
	return nil
}

// Resolve maps a key (canonical or alias) to its canonical name.
// ok is false for keys the schema does not know.
func (s *Schema) Resolve(key string) (string, bool) {
	canonical, ok := s.aliases[key]
	return canonical, ok
}

// Get returns the definition for a key (canonical or alias).
func (s *Schema) Get(key string) (KeyDef, bool) {
	canonical, ok := s.Resolve(key)
	if !ok {
		return KeyDef{}, false
	}
	def, ok := s.keys[canonical]
	return def, ok
}

// SourcesFor returns the ordered verification source identifiers for a
// key; nil when the key is unknown or has no sources.
func (s *Schema) SourcesFor(key string) []string {
	def, ok := s.Get(key)
	if !ok {
		return nil
	}
	return def.Sources
}
