package services

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// imageURLPattern matches https URLs whose path ends in a known image extension,
// optionally followed by a query or fragment.
var imageURLPattern = regexp.MustCompile(`(?i)^https://.*/.*\.(jpg|png|svg|gif|jpeg)($|[?#])`)

// ReferenceFactory builds the store-specific value for a node reference.
type ReferenceFactory func(typeName, id string) any

// NormaliserOptions configures a Normaliser.
type NormaliserOptions struct {
	Namer             domain.TypeNamer
	References        ReferenceFactory
	Hash              domain.HashFunc
	ImageDirectory    string
	IgnoreImages      bool
	ResolveReferences bool

	// ImagePaths is shared with the download queue so both agree on
	// where each image lives. Created from ImageDirectory when nil.
	ImagePaths *ImagePaths
}

// Normaliser converts tagged source values into plain node field data.
// Discovered images are returned to the caller rather than registered;
// the only shared state is the image path table, so concurrent use is safe.
type Normaliser struct {
	opts NormaliserOptions
}

// NewNormaliser creates a normaliser.
func NewNormaliser(opts NormaliserOptions) *Normaliser {
	if opts.Namer.Prefix == "" {
		opts.Namer = domain.NewTypeNamer("")
	}
	if opts.ImageDirectory == "" {
		opts.ImageDirectory = domain.DefaultImageDirectory
	}
	if opts.ImagePaths == nil {
		opts.ImagePaths = NewImagePaths(opts.ImageDirectory)
	}
	return &Normaliser{opts: opts}
}

// Normalise converts one value. Images discovered anywhere inside the value
// are returned in discovery order, each URL at most once.
func (n *Normaliser) Normalise(v domain.Value) (any, []domain.ImageRegistration) {
	c := &imageCollector{}
	out := n.normalise("", v, c)
	return out, c.images
}

// NormaliseFields converts a whole field map.
func (n *Normaliser) NormaliseFields(fields map[string]domain.Value) (map[string]any, []domain.ImageRegistration) {
	c := &imageCollector{}
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		out[name] = n.normalise(name, v, c)
	}
	return out, c.images
}

type imageCollector struct {
	seen   map[string]struct{}
	images []domain.ImageRegistration
}

func (c *imageCollector) add(reg domain.ImageRegistration) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[reg.ID]; ok {
		return
	}
	c.seen[reg.ID] = struct{}{}
	c.images = append(c.images, reg)
}

func (n *Normaliser) normalise(field string, v domain.Value, c *imageCollector) any {
	switch t := v.(type) {
	case nil, domain.Null:
		return nil
	case domain.String:
		return n.normaliseString(string(t), c)
	case domain.Number:
		return float64(t)
	case domain.Bool:
		return bool(t)
	case domain.Timestamp:
		return time.Time(t).UTC()
	case domain.GeoPoint:
		return map[string]any{"lat": t.Latitude, "long": t.Longitude}
	case domain.Reference:
		if !n.opts.ResolveReferences || n.opts.References == nil {
			logger.Warn("field %q: reference %s dropped, reference resolution disabled", field, t.Path)
			return nil
		}
		return n.opts.References(n.opts.Namer.ReferenceType(t.Path), t.Path.Last())
	case domain.Sequence:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = n.normalise(field, item, c)
		}
		return out
	case domain.Structure:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = n.normalise(k, item, c)
		}
		return out
	default:
		logger.Warn("field %q: %s value has no conversion, storing null", field, v.Kind())
		return nil
	}
}

func (n *Normaliser) normaliseString(s string, c *imageCollector) any {
	if n.opts.IgnoreImages || n.opts.Hash == nil || !IsImageURL(s) {
		return s
	}
	id := n.opts.Hash(s)
	filename := ImageFilename(s)
	local := n.opts.ImagePaths.Claim(id, filename)
	c.add(domain.ImageRegistration{
		ID:        id,
		URL:       s,
		Filename:  filename,
		LocalPath: local,
	})
	return local
}

// IsImageURL reports whether s looks like a remote https image.
func IsImageURL(s string) bool {
	return imageURLPattern.MatchString(s)
}

// ImageFilename returns the final path segment of an image URL, with
// encoded slashes treated as separators and the fragment and query removed.
func ImageFilename(raw string) string {
	s := strings.ReplaceAll(raw, "%2F", "/")
	s = strings.ReplaceAll(s, "%2f", "/")
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	// The name ends up on disk; never let it escape the image directory.
	s = strings.ReplaceAll(s, string(filepath.Separator), "_")
	if s == "" || s == "." || s == ".." {
		return "image"
	}
	return s
}
