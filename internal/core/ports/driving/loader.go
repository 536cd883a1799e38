package driving

import "context"

// Loader materialises the declared collections and keeps them synchronised.
type Loader interface {
	// Load traverses every collection definition, drains the image
	// download queue and attaches live watches when enabled.
	Load(ctx context.Context) error

	// Stats returns a summary of the materialised graph.
	Stats(ctx context.Context) (*LoadStats, error)

	// Close unsubscribes every live watch.
	Close() error
}

// LoadStats summarises the materialised graph.
type LoadStats struct {
	// Nodes counts nodes per type name.
	Nodes map[string]int

	// ImagesRegistered is the number of distinct images discovered.
	ImagesRegistered int

	// ImagesDownloaded counts completed transfers.
	ImagesDownloaded int

	// ImagesSkipped counts images already present locally.
	ImagesSkipped int

	// ImagesFailed counts failed or timed out transfers.
	ImagesFailed int

	// Watches is the number of active live watches.
	Watches int
}

// TotalNodes sums nodes across all types.
func (s *LoadStats) TotalNodes() int {
	total := 0
	for _, n := range s.Nodes {
		total += n
	}
	return total
}
