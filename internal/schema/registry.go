// Package schema validates request bodies against embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names.
const (
	DocumentUpdate      = "document_update"
	ParsingConfig       = "parsing_config"
	KnowledgeBaseCreate = "knowledge_base_create"
	KnowledgeBaseUpdate = "knowledge_base_update"
	ProgressReport      = "progress_report"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid request body")

var registry = []string{
	DocumentUpdate,
	ParsingConfig,
	KnowledgeBaseCreate,
	KnowledgeBaseUpdate,
	ProgressReport,
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// Names returns every registered schema name, sorted.
func Names() []string {
	names := make([]string, len(registry))
	copy(names, registry)
	sort.Strings(names)
	return names
}

// Raw returns the JSON source of a schema.
func Raw(name string) ([]byte, error) {
	content, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("schema not found: %s", name)
	}
	return content, nil
}

func compileAll() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range registry {
			content, err := Raw(name)
			if err != nil {
				compileErr = err
				return
			}
			if err := compiler.AddResource(name+".json", bytes.NewReader(content)); err != nil {
				compileErr = fmt.Errorf("failed to load schema %s: %w", name, err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(registry))
		for _, name := range registry {
			s, err := compiler.Compile(name + ".json")
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			out[name] = s
		}
		compiled = out
	})
	return compiled, compileErr
}

// Validate checks raw JSON against the named schema. Malformed JSON and
// schema violations both wrap ErrInvalid.
func Validate(name string, raw []byte) error {
	schemas, err := compileAll()
	if err != nil {
		return err
	}
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalid, err)
	}
	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(ve))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Decode validates raw against the named schema and unmarshals it into v.
func Decode(name string, raw []byte, v any) error {
	if err := Validate(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// describe flattens a validation error to its most specific causes.
func describe(ve *jsonschema.ValidationError) string {
	leaves := ve.BasicOutput().Errors
	var buf bytes.Buffer
	for _, e := range leaves {
		if e.Error == "" || e.KeywordLocation == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("; ")
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		fmt.Fprintf(&buf, "%s: %s", loc, e.Error)
	}
	if buf.Len() == 0 {
		return ve.Error()
	}
	return buf.String()
}
