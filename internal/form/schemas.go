package form

import (
	"regexp"
	"sort"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	urlPattern  = regexp.MustCompile(`^https?://\S+$`)
)

// LoginSchema validates the sign-in form.
func LoginSchema() *Object {
	return NewObject().
		Field("email", String().Required("Email is required").Email("")).
		Field("password", String().Required("Password is required").MinLen(8, ""))
}

// ArticleSchema validates the article editor form.
func ArticleSchema() *Object {
	return NewObject().
		Field("title", String().Required("Title is required").MaxLen(200, "")).
		Field("slug", String().Required("Slug is required").Pattern(slugPattern, "Slug may contain lowercase letters, digits and dashes")).
		Field("excerpt", String().MaxLen(300, "")).
		Field("content", String().Required("Content is required")).
		Field("external_url", String().Pattern(urlPattern, "Must be an http or https URL"))
}

var builtin = map[string]func() *Object{
	"login":   LoginSchema,
	"article": ArticleSchema,
}

// Lookup returns a built-in schema by name.
func Lookup(name string) (*Object, bool) {
	f, ok := builtin[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// SchemaNames lists the built-in schemas.
func SchemaNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
