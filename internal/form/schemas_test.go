package form

import (
	"errors"
	"testing"
)

func TestBuiltinSchemas(t *testing.T) {
	tests := []struct {
		schema string
		field  string
		value  string
		want   string
	}{
		{"login", "email", "", "Email is required"},
		{"login", "email", "nope", "Invalid email"},
		{"login", "email", "a@b.co", ""},
		{"login", "password", "short", "Must be at least 8 characters"},
		{"login", "password", "longenough", ""},
		{"article", "slug", "Hello World", "Slug may contain lowercase letters, digits and dashes"},
		{"article", "slug", "hello-world-2", ""},
		{"article", "external_url", "", ""},
		{"article", "external_url", "ftp://x", "Must be an http or https URL"},
		{"article", "title", "", "Title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.schema+"/"+tt.field+"/"+tt.value, func(t *testing.T) {
			obj, ok := Lookup(tt.schema)
			if !ok {
				t.Fatalf("Lookup(%q) failed", tt.schema)
			}
			sub, err := obj.Pick(tt.field)
			if err != nil {
				t.Fatal(err)
			}

			got := ""
			var issues *Issues
			if err := sub.Validate(map[string]any{tt.field: tt.value}); errors.As(err, &issues) {
				got = issues.First()
			} else if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup("profile"); ok {
		t.Error("Lookup(profile) succeeded")
	}
	names := SchemaNames()
	if len(names) != 2 || names[0] != "article" || names[1] != "login" {
		t.Errorf("SchemaNames() = %v", names)
	}
}
