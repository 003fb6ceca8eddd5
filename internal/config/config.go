// Package config defines the configuration model for a rate-table build.
//
// A build file is JSON or YAML (picked by extension) and mirrors the stages of
// the job: where the source tables live and how to parse them, which products
// are published, where intermediate artifacts go, and which store receives
// the final schema.
//
// Example (trimmed):
//
//	{
//	  "sources":   { "dir": "actuarial_tables", "parser": { "kind": "csv", "options": { "comma": "\t" } } },
//	  "products":  [ { "plan_code": "ula20", "minimum_face_amount": 100000 } ],
//	  "artifacts": { "dir": "build/artifacts" },
//	  "storage":   { "kind": "sqlite", "db": { "dsn": "pricing.db", "replace": true } },
//	  "runtime":   { "workers": 1, "batch_size": 5000 }
//	}
package config

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Build is the top-level object decoded from a build file.
type Build struct {
	// Job labels metrics and log lines for this build.
	Job string `json:"job" yaml:"job"`

	Sources   Sources       `json:"sources" yaml:"sources"`
	Products  []Product     `json:"products" yaml:"products"`
	Artifacts Artifacts     `json:"artifacts" yaml:"artifacts"`
	Storage   Storage       `json:"storage" yaml:"storage"`
	Runtime   RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// Sources locates the five source tables.
type Sources struct {
	// Dir is prepended to every relative file name in Files. An http(s) URL
	// makes every file a remote source.
	Dir    string      `json:"dir" yaml:"dir"`
	Parser Parser      `json:"parser" yaml:"parser"`
	Files  SourceFiles `json:"files" yaml:"files"`
	HTTP   HTTPSource  `json:"http" yaml:"http"`
}

// HTTPSource tunes the client used for remote sources.
type HTTPSource struct {
	// Retries on transport errors, 429 and 5xx. 0 means the client default;
	// negative disables retries.
	Retries            int  `json:"retries" yaml:"retries"`
	TimeoutSeconds     int  `json:"timeout_seconds" yaml:"timeout_seconds"`
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Remote reports whether Dir is an http(s) URL.
func (s Sources) Remote() bool {
	d := strings.ToLower(s.Dir)
	return strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://")
}

// URL resolves a source file name against a remote Dir.
func (s Sources) URL(name string) (string, error) {
	if u, err := url.Parse(name); err == nil && u.IsAbs() {
		return name, nil
	}
	return url.JoinPath(s.Dir, name)
}

// SourceFiles names the file holding each source table.
type SourceFiles struct {
	RateDescription string `json:"rate_description" yaml:"rate_description"`
	PremiumRate     string `json:"premium_rate" yaml:"premium_rate"`
	Band            string `json:"band" yaml:"band"`
	ModalProfile    string `json:"modal_profile" yaml:"modal_profile"`
	CashValue       string `json:"cash_value" yaml:"cash_value"`
}

// Path resolves a source file name against Dir.
func (s Sources) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Parser selects how source files are read.
type Parser struct {
	// Kind is "csv" (delimited text) or "xlsx". An empty kind picks the reader
	// from each file's extension.
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the reader. Delimited text understands
	// comma (string), lazy_quotes (bool) and fields_per_record (int); xlsx
	// understands sheet (string).
	Options Options `json:"options" yaml:"options"`
}

// Product is a plan code published by the build, with its minimum face
// amount.
type Product struct {
	PlanCode          string `json:"plan_code" yaml:"plan_code"`
	MinimumFaceAmount int64  `json:"minimum_face_amount" yaml:"minimum_face_amount"`
}

// Artifacts configures where the transform stage writes its output.
type Artifacts struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Storage selects the relational store the load stage writes to.
type Storage struct {
	// Kind is a registered storage backend: "sqlite", "postgres" or "mssql".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `yaml:"db" json:"db"`
}

// DBConfig configures the target database.
type DBConfig struct {
	// DSN is the backend connection string. For sqlite it is a file path or
	// ":memory:".
	DSN string `json:"dsn" yaml:"dsn"`

	// Replace drops and recreates the rate tables before loading. With
	// Replace=false the tables must not exist yet.
	Replace bool `json:"replace" yaml:"replace"`
}

// RuntimeConfig controls concurrency and batching.
type RuntimeConfig struct {
	// Workers bounds concurrent artifact reads and writes. 1 is sequential.
	Workers int `json:"workers" yaml:"workers"`

	// BatchSize is the number of rows per insert batch.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// WorkerCount returns Workers, or 1 when unset.
func (r RuntimeConfig) WorkerCount() int {
	if r.Workers <= 0 {
		return 1
	}
	return r.Workers
}

// BatchRows returns BatchSize, or the default when unset.
func (r RuntimeConfig) BatchRows() int {
	if r.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return r.BatchSize
}

// Options is a small helper to fetch typed values from free-form maps decoded
// from JSON or YAML. It performs minimal coercion and returns the provided
// default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64 and yaml.v3 as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON decodes a missing or null object to a non-nil, empty map and
// replaces (rather than merges into) any existing value.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for yaml.v3.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
