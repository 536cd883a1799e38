package services

import (
	"path/filepath"
	"sync"
)

// ImagePaths assigns each image URL a local path inside one directory.
// The first URL to claim a filename keeps it; a later URL with the same
// filename gets "<id prefix>-<filename>" instead. Safe for concurrent use.
type ImagePaths struct {
	dir string

	mu     sync.Mutex
	byID   map[string]string
	owners map[string]string
}

// NewImagePaths creates a path table rooted at dir.
func NewImagePaths(dir string) *ImagePaths {
	return &ImagePaths{
		dir:    dir,
		byID:   make(map[string]string),
		owners: make(map[string]string),
	}
}

// Claim returns the local path for the image with the given hash id.
// Repeated claims for the same id return the same path.
func (p *ImagePaths) Claim(id, filename string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimLocked(id, filepath.Join(p.dir, filename))
}

// claimPath is Claim for a path already joined with a directory.
func (p *ImagePaths) claimPath(id, path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimLocked(id, path)
}

func (p *ImagePaths) claimLocked(id, path string) string {
	if existing, ok := p.byID[id]; ok {
		return existing
	}
	if owner, ok := p.owners[path]; ok && owner != id {
		path = uniqueImagePath(path, id)
	}
	p.byID[id] = path
	p.owners[path] = id
	return path
}

// uniqueImagePath prefixes the file name in path with the first eight
// characters of id.
func uniqueImagePath(path, id string) string {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	dir, name := filepath.Split(path)
	return filepath.Join(dir, prefix+"-"+name)
}
