package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePaths_Claim(t *testing.T) {
	p := NewImagePaths("img")

	assert.Equal(t, filepath.Join("img", "a.png"), p.Claim("11111111aaaa", "a.png"))
	assert.Equal(t, filepath.Join("img", "a.png"), p.Claim("11111111aaaa", "a.png"))
	assert.Equal(t, filepath.Join("img", "22222222-a.png"), p.Claim("22222222bbbb", "a.png"))
	assert.Equal(t, filepath.Join("img", "22222222-a.png"), p.Claim("22222222bbbb", "a.png"))
	assert.Equal(t, filepath.Join("img", "b.png"), p.Claim("22222222cccc", "b.png"))
}

func TestImagePaths_ShortID(t *testing.T) {
	p := NewImagePaths("img")
	p.Claim("first", "a.png")
	assert.Equal(t, filepath.Join("img", "abc-a.png"), p.Claim("abc", "a.png"))
}

func TestImagePaths_ConcurrentClaimsStayDistinct(t *testing.T) {
	p := NewImagePaths("img")

	var wg sync.WaitGroup
	got := make([]string, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = p.Claim(fmt.Sprintf("%08d-id", i), "same.png")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, len(got))
	for _, path := range got {
		assert.False(t, seen[path], "duplicate path %s", path)
		seen[path] = true
	}
}
