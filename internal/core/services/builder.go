package services

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ohler55/ojg/jp"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// selectorCacheSize bounds the number of compiled JSONPath selectors kept.
const selectorCacheSize = 256

// NodeBuilder turns document records into nodes.
type NodeBuilder struct {
	normaliser *Normaliser
	slugify    domain.SlugifyFunc
	namer      domain.TypeNamer
	references ReferenceFactory
	selectors  *lru.Cache[string, jp.Expr]
}

// NewNodeBuilder creates a node builder. references may be nil when the
// store has no reference support; parent links are then stored as null.
func NewNodeBuilder(normaliser *Normaliser, slugify domain.SlugifyFunc, namer domain.TypeNamer, references ReferenceFactory) *NodeBuilder {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, jp.Expr](selectorCacheSize)
	return &NodeBuilder{
		normaliser: normaliser,
		slugify:    slugify,
		namer:      namer,
		references: references,
		selectors:  cache,
	}
}

// Build materialises one record. Selector problems never fail the build:
// they are logged and the native id or default path is used instead.
func (b *NodeBuilder) Build(record *domain.DocumentRecord, slug domain.SlugSelector, id domain.IDSelector) (domain.Node, []domain.ImageRegistration) {
	nodeID := b.nodeID(record, id)
	nodePath := b.nodePath(record, slug)

	// Reserved fields are set after normalisation so they stay verbatim.
	raw := make(map[string]domain.Value, len(record.Fields))
	for k, v := range record.Fields {
		switch k {
		case domain.FieldID, domain.FieldPath, domain.FieldParent:
			continue
		}
		raw[k] = v
	}

	fields, images := b.normaliser.NormaliseFields(raw)
	fields[domain.FieldID] = nodeID
	fields[domain.FieldPath] = nodePath

	parentRef := b.parentReference(record.Parent)
	fields[domain.FieldParent] = parentRef

	return domain.Node{
		ID:        nodeID,
		Path:      nodePath,
		Fields:    fields,
		ParentRef: parentRef,
	}, images
}

func (b *NodeBuilder) parentReference(parent *domain.DocumentRecord) any {
	if parent == nil || b.references == nil {
		return nil
	}
	return b.references(b.namer.ReferenceType(parent.Ref), parent.ID)
}

func (b *NodeBuilder) nodeID(record *domain.DocumentRecord, sel domain.IDSelector) string {
	var id string
	switch {
	case sel.Func != nil:
		id = sel.Func(record)
	case sel.Field != "":
		id = b.selectString(record, sel.Field)
	default:
		return record.ID
	}
	if id == "" {
		logger.Warn("document %s: id selector yielded nothing, using document id", record.Ref)
		return record.ID
	}
	return id
}

func (b *NodeBuilder) nodePath(record *domain.DocumentRecord, sel domain.SlugSelector) string {
	var p string
	switch {
	case sel.Func != nil:
		p = sel.Func(record, b.slugify)
		if p == "" {
			logger.Warn("document %s: slug function yielded nothing, using default path", record.Ref)
		}
	case sel.Field != "":
		if v := b.selectString(record, sel.Field); v != "" {
			p = b.slugify(v)
		} else {
			logger.Warn("document %s: slug field %q is empty, using default path", record.Ref, sel.Field)
		}
	}
	if p == "" {
		p = b.defaultPath(record)
	}
	return ensureLeadingSlash(p)
}

func (b *NodeBuilder) defaultPath(record *domain.DocumentRecord) string {
	if v, ok := record.Field(domain.FieldSlug); ok {
		if s := stringify(domain.Plain(v)); s != "" {
			return b.slugify(s)
		}
	}
	return record.ID
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// selectString evaluates a field name or a "$"-prefixed JSONPath expression
// against the raw record fields.
func (b *NodeBuilder) selectString(record *domain.DocumentRecord, selector string) string {
	if !strings.HasPrefix(selector, "$") {
		v, ok := record.Field(selector)
		if !ok {
			return ""
		}
		return stringify(domain.Plain(v))
	}

	expr, err := b.compile(selector)
	if err != nil {
		logger.Warn("selector %q: %v", selector, err)
		return ""
	}
	return stringify(expr.First(domain.PlainFields(record.Fields)))
}

func (b *NodeBuilder) compile(selector string) (jp.Expr, error) {
	if expr, ok := b.selectors.Get(selector); ok {
		return expr, nil
	}
	expr, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector: %w", err)
	}
	b.selectors.Add(selector, expr)
	return expr, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
