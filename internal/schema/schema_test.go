package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(registry) {
		t.Fatalf("expected %d schemas, got %d", len(registry), len(names))
	}
	for _, name := range names {
		raw, err := Raw(name)
		if err != nil {
			t.Fatalf("Raw(%s) error = %v", name, err)
		}
		if !strings.Contains(string(raw), `"$schema"`) {
			t.Errorf("schema %s has no $schema", name)
		}
	}
}

func TestAllSchemasCompile(t *testing.T) {
	schemas, err := compileAll()
	if err != nil {
		t.Fatalf("compileAll() error = %v", err)
	}
	for _, name := range registry {
		if schemas[name] == nil {
			t.Errorf("schema %s not compiled", name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		body    string
		wantErr bool
	}{
		{"offset reset", DocumentUpdate, `{"parse_offset":0}`, false},
		{"override only", DocumentUpdate, `{"parsing_config":{"chunk_size":200}}`, false},
		{"clear override", DocumentUpdate, `{"parsing_config":{"chunk_size":null,"overlap":null}}`, false},
		{"empty update", DocumentUpdate, `{}`, true},
		{"negative offset", DocumentUpdate, `{"parse_offset":-1}`, true},
		{"fractional offset", DocumentUpdate, `{"parse_offset":1.5}`, true},
		{"status is read-only", DocumentUpdate, `{"status":"processed"}`, true},
		{"zero chunk size", DocumentUpdate, `{"parsing_config":{"chunk_size":0}}`, true},
		{"malformed", DocumentUpdate, `{"parse_offset":`, true},

		{"kb create", KnowledgeBaseCreate, `{"name":"papers","chunk_size":500,"overlap":50}`, false},
		{"kb create without name", KnowledgeBaseCreate, `{"chunk_size":500}`, true},
		{"kb update", KnowledgeBaseUpdate, `{"auto_process_on_upload":true}`, false},
		{"kb update empty", KnowledgeBaseUpdate, `{}`, true},

		{"report processing", ProgressReport, `{"run":1,"status":"processing","parse_offset":3,"chunk_count":9}`, false},
		{"report processed", ProgressReport, `{"run":2,"status":"processed","parse_offset":9,"chunk_count":9,"config":{"chunk_size":500,"overlap":50}}`, false},
		{"report paused", ProgressReport, `{"run":1,"status":"paused"}`, true},
		{"report without run", ProgressReport, `{"status":"failed"}`, true},

		{"upload config", ParsingConfig, `{"overlap":0}`, false},
		{"upload config extra", ParsingConfig, `{"size":3}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.schema, []byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		ParseOffset *int `json:"parse_offset"`
	}
	if err := Decode(DocumentUpdate, []byte(`{"parse_offset":4}`), &v); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.ParseOffset == nil || *v.ParseOffset != 4 {
		t.Errorf("unexpected decode result: %+v", v)
	}
}
