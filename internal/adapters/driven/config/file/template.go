package file

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

const templateCacheSize = 128

// templates caches compiled path templates by source text. Nested
// collections repeat the same template across many files.
var templates, _ = lru.New[string, *template.Template](templateCacheSize)

// templateParent is the view of the parent document exposed to a
// path template as .Parent.
type templateParent struct {
	ID     string
	Path   string
	Fields map[string]any
}

// compilePathTemplate turns a text/template into a parent-dependent
// reference. Executing it without a parent is an error.
//
//	path_template = "{{ .Parent.Path }}/posts"
func compilePathTemplate(text string) (domain.PathFunc, error) {
	tmpl, ok := templates.Get(text)
	if !ok {
		parsed, err := template.New("path").Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		templates.Add(text, parsed)
		tmpl = parsed
	}

	return func(parent *domain.DocumentRecord) (domain.Path, error) {
		if parent == nil {
			return nil, domain.ErrParentRequired
		}
		data := map[string]any{
			"Parent": templateParent{
				ID:     parent.ID,
				Path:   parent.Ref.String(),
				Fields: domain.PlainFields(parent.Fields),
			},
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing path template: %w", err)
		}
		return domain.ParsePath(strings.TrimSpace(buf.String()))
	}, nil
}
