package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package endpoints loads the storefront endpoint file: a base URL plus a
// mapping of operation names to path templates.

var (
	ErrMissingBaseURL        = errors.New("base_url is required")
	ErrMissingEndpoint       = errors.New("endpoint not configured")
	ErrUnresolvedPlaceholder = errors.New("unresolved path placeholder")
)

// ConfigError reports a problem with the endpoint file.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("endpoint config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("endpoint config %s: %q: %v", e.Path, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var placeholderRe = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// Config is the immutable endpoint configuration.
type Config struct {
	baseURL   string
	endpoints map[string]string
	source    string
}

type document struct {
	BaseURL   string            `json:"base_url" yaml:"base_url"`
	Endpoints map[string]string `json:"api_endpoints" yaml:"api_endpoints"`
}

// Load reads the endpoint file at path. JSON is the canonical format; YAML is
// accepted for .yaml/.yml files.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoint config path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoint config: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoint config: %w", err)
	}

	doc, err := parseDocument(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return build(doc, path)
}

// New builds a Config from in-memory values.
func New(baseURL string, endpoints map[string]string) (*Config, error) {
	return build(document{BaseURL: baseURL, Endpoints: endpoints}, "<memory>")
}

func build(doc document, source string) (*Config, error) {
	doc = sanitizeDocument(doc)
	if doc.BaseURL == "" {
		return nil, &ConfigError{Path: source, Key: "base_url", Err: ErrMissingBaseURL}
	}
	return &Config{baseURL: doc.BaseURL, endpoints: doc.Endpoints, source: source}, nil
}

type unmarshalFn func([]byte, any) error

func parseDocument(data []byte, ext string) (document, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var doc document
		if err := d.fn(data, &doc); err != nil {
			lastErr = fmt.Errorf("decode %s endpoint config: %w", d.name, err)
			continue
		}
		return doc, nil
	}
	if lastErr != nil {
		return document{}, lastErr
	}
	return document{}, errors.New("endpoint config format not recognized (expected JSON or YAML)")
}

func sanitizeDocument(doc document) document {
	doc.BaseURL = strings.TrimSpace(doc.BaseURL)
	clean := make(map[string]string, len(doc.Endpoints))
	for k, v := range doc.Endpoints {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		clean[key] = strings.TrimSpace(v)
	}
	doc.Endpoints = clean
	return doc
}

// BaseURL returns the root address prefixed to every endpoint.
func (c *Config) BaseURL() string { return c.baseURL }

// Source returns the file the config was loaded from.
func (c *Config) Source() string { return c.source }

// Template returns the raw path template for an operation.
func (c *Config) Template(name string) (string, bool) {
	tpl, ok := c.endpoints[name]
	return tpl, ok
}

// Names returns the configured operation names, sorted.
func (c *Config) Names() []string {
	out := make([]string, 0, len(c.endpoints))
	for k := range c.endpoints {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Require reports the first operation name missing from the config.
func (c *Config) Require(names ...string) error {
	for _, name := range names {
		if _, ok := c.endpoints[name]; !ok {
			return &ConfigError{Path: c.source, Key: name, Err: ErrMissingEndpoint}
		}
	}
	return nil
}

// URL builds the absolute URL for an operation, substituting {param}
// placeholders verbatim. The base URL and path are concatenated as-is.
func (c *Config) URL(name string, params map[string]string) (string, error) {
	tpl, ok := c.endpoints[name]
	if !ok {
		return "", &ConfigError{Path: c.source, Key: name, Err: ErrMissingEndpoint}
	}

	path := tpl
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	if leftover := placeholderRe.FindString(path); leftover != "" {
		return "", fmt.Errorf("endpoint %q: %s: %w", name, leftover, ErrUnresolvedPlaceholder)
	}
	return c.baseURL + path, nil
}
