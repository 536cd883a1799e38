package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fsapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ConnectorType is the identifier of this connector.
const ConnectorType = "firestore"

// pageSize is the number of documents requested per list page.
const pageSize = 300

// DefaultEndpoint is the production REST endpoint.
const DefaultEndpoint = "https://firestore.googleapis.com/"

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Config addresses a Firestore database.
type Config struct {
	ProjectID string
	Database  string

	// CredentialsFile is a service account JSON key.
	CredentialsFile string

	// APIKey authenticates without a service account.
	APIKey string

	// Endpoint overrides the API base URL (emulator, tests).
	// Requests are unauthenticated when no credentials are set.
	Endpoint string

	// PollInterval is the refresh interval of subscriptions.
	PollInterval time.Duration

	// RateLimit throttles API requests. Zero uses DefaultRateLimit.
	RateLimit RateLimitConfig

	// HTTPClient replaces the authenticated transport.
	HTTPClient *http.Client
}

// ConfigFromSettings builds a Config from source settings.
func ConfigFromSettings(s domain.SourceSettings) Config {
	return Config{
		ProjectID:       s.ProjectID,
		Database:        s.Database,
		CredentialsFile: s.CredentialsFile,
		APIKey:          s.APIKey,
		Endpoint:        s.Endpoint,
		PollInterval:    s.PollInterval,
	}
}

// Source reads documents through the Firestore REST API.
// Subscriptions poll and deliver a full snapshot whenever the
// referenced documents change.
type Source struct {
	client   *http.Client
	baseURL  string
	root     string
	limiter  *RateLimiter
	interval time.Duration

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

// query is a resolved Firestore reference.
type query struct {
	ref domain.Path
}

// Path implements driven.Query.
func (q query) Path() domain.Path {
	return q.ref
}

// New creates a Firestore source.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.ProjectID == "" {
		return nil, &domain.ConfigError{Field: "source.project_id", Err: domain.ErrMissingCollaborator}
	}
	if cfg.Database == "" {
		cfg.Database = "(default)"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = domain.DefaultPollInterval
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, endpoint, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	return &Source{
		client:   client,
		baseURL:  endpoint + "v1/",
		root:     fmt.Sprintf("projects/%s/databases/%s/documents", cfg.ProjectID, cfg.Database),
		limiter:  NewRateLimiter(cfg.RateLimit),
		interval: cfg.PollInterval,
		subs:     make(map[*subscription]struct{}),
	}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	opts := []option.ClientOption{option.WithEndpoint(endpoint)}

	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, fsapi.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(oauth2.ReuseTokenSource(nil, creds.TokenSource)))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts, nil
}

// Type returns the connector type identifier.
func (s *Source) Type() string {
	return ConnectorType
}

// Resolve validates the path.
func (s *Source) Resolve(_ context.Context, ref domain.Path) (driven.Query, error) {
	if len(ref) == 0 {
		return nil, domain.ErrInvalidPath
	}
	return query{ref: ref}, nil
}

// Fetch executes the query once.
func (s *Source) Fetch(ctx context.Context, q driven.Query) (domain.Snapshot, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.Snapshot{}, domain.ErrSourceClosed
	}

	snap, _, err := s.fetch(ctx, q.Path())
	return snap, err
}

// Close stops every subscription.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[*subscription]struct{})
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

// fetch returns the snapshot and a version string that changes whenever
// a document is added, removed or updated.
func (s *Source) fetch(ctx context.Context, ref domain.Path) (domain.Snapshot, string, error) {
	if ref.IsDocument() {
		return s.getDocument(ctx, ref)
	}
	return s.listCollection(ctx, ref)
}

func (s *Source) getDocument(ctx context.Context, ref domain.Path) (domain.Snapshot, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.Snapshot{}, "", err
	}

	var doc wireDocument
	if err := s.get(ctx, s.name(ref), nil, &doc); err != nil {
		if IsNotFound(err) {
			return domain.EmptySnapshot(), "", nil
		}
		return domain.Snapshot{}, "", s.apiError(err)
	}

	raw, err := toRawDocument(&doc)
	if err != nil {
		return domain.Snapshot{}, "", err
	}
	return domain.SingleSnapshot(raw), doc.Name + "@" + doc.UpdateTime, nil
}

func (s *Source) listCollection(ctx context.Context, ref domain.Path) (domain.Snapshot, string, error) {
	parent := s.root
	if parentDoc := ref.Parent(); len(parentDoc) > 0 {
		parent = s.name(parentDoc)
	}

	var (
		docs    []domain.RawDocument
		version string
		token   string
	)
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.Snapshot{}, "", err
		}
		query := url.Values{"pageSize": {strconv.Itoa(pageSize)}}
		if token != "" {
			query.Set("pageToken", token)
		}
		var page wireList
		if err := s.get(ctx, parent+"/"+ref.Last(), query, &page); err != nil {
			return domain.Snapshot{}, "", s.apiError(err)
		}
		for i := range page.Documents {
			doc := &page.Documents[i]
			raw, err := toRawDocument(doc)
			if err != nil {
				return domain.Snapshot{}, "", err
			}
			docs = append(docs, raw)
			version += doc.Name + "@" + doc.UpdateTime + ";"
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	return domain.MultiSnapshot(docs), version, nil
}

// get reads a resource and decodes the JSON body into out. Non-2xx
// responses are returned as *googleapi.Error.
func (s *Source) get(ctx context.Context, name string, query url.Values, out any) error {
	target := s.baseURL + escapeName(name)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		return err
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// escapeName escapes each segment of a resource name for use in a URL path.
func escapeName(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// name returns the resource name of a path.
func (s *Source) name(ref domain.Path) string {
	return s.root + "/" + ref.String()
}

// apiError records rate limiting and maps API errors.
func (s *Source) apiError(err error) error {
	if IsRateLimited(err) {
		s.limiter.RecordRateLimitError(retryAfter(err))
	}
	return WrapError(err)
}
