package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCGRAPH_"

// legacyEnvPrefix names the older Firestore credential variables.
const legacyEnvPrefix = "GRIDSOME_"

// Config is a loaded configuration file.
type Config struct {
	Settings    domain.Settings
	Collections []domain.CollectionDefinition

	path string
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	TypePrefix        string `toml:"type_prefix"`
	ImageDirectory    string `toml:"image_directory"`
	IgnoreImages      bool   `toml:"ignore_images"`
	ResolveReferences *bool  `toml:"resolve_references"`
	LiveSync          bool   `toml:"live_sync"`
	StrictParentRefs  bool   `toml:"strict_parent_refs"`
	Debug             bool   `toml:"debug"`

	Store       storeSection       `toml:"store"`
	Downloads   downloadSection    `toml:"downloads"`
	Source      sourceSection      `toml:"source"`
	Collections []collectionConfig `toml:"collections"`
}

type storeSection struct {
	Kind    string `toml:"kind"`
	DataDir string `toml:"data_dir"`
}

type downloadSection struct {
	Concurrency int     `toml:"concurrency"`
	Timeout     string  `toml:"timeout"`
	Rate        float64 `toml:"rate"`
}

type sourceSection struct {
	Type            string `toml:"type"`
	Root            string `toml:"root"`
	ProjectID       string `toml:"project_id"`
	Database        string `toml:"database"`
	CredentialsFile string `toml:"credentials_file"`
	APIKey          string `toml:"api_key"`
	PollInterval    string `toml:"poll_interval"`
	Endpoint        string `toml:"endpoint"`
}

type collectionConfig struct {
	Name         string             `toml:"name"`
	Path         string             `toml:"path"`
	PathTemplate string             `toml:"path_template"`
	ID           string             `toml:"id"`
	Slug         string             `toml:"slug"`
	Skip         bool               `toml:"skip"`
	Watch        bool               `toml:"watch"`
	Children     []collectionConfig `toml:"children"`
}

// DefaultPath returns ~/.docgraph/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docgraph", "config.toml"), nil
}

// Load reads and converts the configuration at path.
// If path is empty, DefaultPath is used.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Parse converts TOML data into a Config. lookup resolves environment
// overrides; pass nil to ignore the environment. Defaults are applied but
// settings are not validated, so callers can still override them.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if lookup != nil {
		if err := applyEnv(&fc, lookup); err != nil {
			return nil, err
		}
	}

	settings, err := fc.settings()
	if err != nil {
		return nil, err
	}

	collections, err := convertCollections(fc.Collections, "collections")
	if err != nil {
		return nil, err
	}

	return &Config{Settings: settings, Collections: collections}, nil
}

func (fc *fileConfig) settings() (domain.Settings, error) {
	s := domain.Settings{
		TypePrefix:       fc.TypePrefix,
		ImageDirectory:   fc.ImageDirectory,
		IgnoreImages:     fc.IgnoreImages,
		LiveSync:         fc.LiveSync,
		StrictParentRefs: fc.StrictParentRefs,
		Debug:            fc.Debug,
		Downloads: domain.DownloadSettings{
			Concurrency:   fc.Downloads.Concurrency,
			RatePerSecond: fc.Downloads.Rate,
		},
		Store: domain.StoreSettings{
			Kind:    domain.StoreKind(fc.Store.Kind),
			DataDir: fc.Store.DataDir,
		},
		Source: domain.SourceSettings{
			Kind:            domain.SourceKind(fc.Source.Type),
			Root:            fc.Source.Root,
			ProjectID:       fc.Source.ProjectID,
			Database:        fc.Source.Database,
			CredentialsFile: fc.Source.CredentialsFile,
			APIKey:          fc.Source.APIKey,
			Endpoint:        fc.Source.Endpoint,
		},
	}

	// resolve_references defaults to on.
	s.ResolveReferences = fc.ResolveReferences == nil || *fc.ResolveReferences

	var err error
	if s.Downloads.Timeout, err = parseDuration(fc.Downloads.Timeout, "downloads.timeout"); err != nil {
		return s, err
	}
	if s.Source.PollInterval, err = parseDuration(fc.Source.PollInterval, "source.poll_interval"); err != nil {
		return s, err
	}

	return s.WithDefaults(), nil
}

func parseDuration(value, field string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &domain.ConfigError{Field: field, Err: fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)}
	}
	return d, nil
}

func convertCollections(in []collectionConfig, field string) ([]domain.CollectionDefinition, error) {
	out := make([]domain.CollectionDefinition, 0, len(in))
	for i, cc := range in {
		def, err := cc.definition(fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func (cc collectionConfig) definition(field string) (domain.CollectionDefinition, error) {
	def := domain.CollectionDefinition{
		Name:  cc.Name,
		ID:    domain.IDSelector{Field: cc.ID},
		Slug:  domain.SlugSelector{Field: cc.Slug},
		Skip:  cc.Skip,
		Watch: cc.Watch,
	}

	switch {
	case cc.Path != "" && cc.PathTemplate != "":
		return def, &domain.ConfigError{
			Field: field,
			Err:   fmt.Errorf("%w: path and path_template are exclusive", domain.ErrInvalidInput),
		}
	case cc.PathTemplate != "":
		fn, err := compilePathTemplate(cc.PathTemplate)
		if err != nil {
			return def, &domain.ConfigError{Field: field + ".path_template", Err: err}
		}
		def.PathFunc = fn
	case cc.Path != "":
		p, err := domain.ParsePath(cc.Path)
		if err != nil {
			return def, &domain.ConfigError{Field: field + ".path", Err: err}
		}
		def.Path = p
	default:
		return def, &domain.ConfigError{
			Field: field,
			Err:   fmt.Errorf("%w: path or path_template is required", domain.ErrInvalidInput),
		}
	}

	children, err := convertCollections(cc.Children, field+".children")
	if err != nil {
		return def, err
	}
	def.Children = children
	return def, nil
}

// applyEnv overrides scalar settings from DOCGRAPH_* variables.
func applyEnv(fc *fileConfig, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, envError(key, err))
				return
			}
			*dst = b
		}
	}

	str("TYPE_PREFIX", &fc.TypePrefix)
	str("IMAGE_DIRECTORY", &fc.ImageDirectory)
	boolean("IGNORE_IMAGES", &fc.IgnoreImages)
	boolean("LIVE_SYNC", &fc.LiveSync)
	boolean("STRICT_PARENT_REFS", &fc.StrictParentRefs)
	boolean("DEBUG", &fc.Debug)
	if v, ok := lookup(EnvPrefix + "RESOLVE_REFERENCES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, envError("RESOLVE_REFERENCES", err))
		} else {
			fc.ResolveReferences = &b
		}
	}

	str("STORE_KIND", &fc.Store.Kind)
	str("STORE_DATA_DIR", &fc.Store.DataDir)
	str("DOWNLOADS_TIMEOUT", &fc.Downloads.Timeout)
	if v, ok := lookup(EnvPrefix + "DOWNLOADS_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, envError("DOWNLOADS_CONCURRENCY", err))
		} else {
			fc.Downloads.Concurrency = n
		}
	}

	str("SOURCE_TYPE", &fc.Source.Type)
	str("SOURCE_ROOT", &fc.Source.Root)
	str("SOURCE_PROJECT_ID", &fc.Source.ProjectID)
	str("SOURCE_DATABASE", &fc.Source.Database)
	str("SOURCE_CREDENTIALS_FILE", &fc.Source.CredentialsFile)
	str("SOURCE_API_KEY", &fc.Source.APIKey)
	str("SOURCE_ENDPOINT", &fc.Source.Endpoint)
	str("SOURCE_POLL_INTERVAL", &fc.Source.PollInterval)

	// GRIDSOME_* variables configured Firestore before DOCGRAPH_* existed.
	legacy := func(key string, dst *string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(legacyEnvPrefix + key); ok {
			*dst = v
		}
	}
	legacy("PROJECT_ID", &fc.Source.ProjectID)
	legacy("API_KEY", &fc.Source.APIKey)

	return errors.Join(errs...)
}

func envError(key string, err error) error {
	return &domain.ConfigError{
		Field: strings.ToLower(key),
		Err:   fmt.Errorf("%w: %s%s: %w", domain.ErrInvalidInput, EnvPrefix, key, err),
	}
}
