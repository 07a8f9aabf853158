// Package config defines the JSON pipeline file that drives an import run
// and the command-line flags that select it.
//
// Example:
//
//	{
//	  "job":       "empmaster",
//	  "source":    { "kind": "sftp", "sftp": { "host": "sftp.example.com", "user": "hr", "path": "/EmpMaster.csv" } },
//	  "parser":    { "kind": "csv", "options": { "infer_types": true } },
//	  "transform": { "business_groups_file": "groups.yaml", "fallback": "null_row" },
//	  "storage":   { "kind": "mssql", "db": { "dsn": "sqlserver://...", "table": "dbo.emp_master", "auto_create_table": true } },
//	  "schedule":  "@daily",
//	  "log_file":  "import_log.txt",
//	  "reject_log": "rejects/emp_master.csv"
//	}
//
// Secrets may be left out of the file and supplied through the environment
// (see ApplyEnv).
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job"`

	Source    Source    `json:"source"`
	Parser    Parser    `json:"parser"`
	Transform Transform `json:"transform"`
	Storage   Storage   `json:"storage"`

	// Schedule is an optional cron expression ("@daily", "0 2 * * *"). When
	// empty the command runs once.
	Schedule string `json:"schedule"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `json:"log_file"`

	// RejectLog, when set, is rewritten each run with a CSV row for every
	// input row whose insert failed.
	RejectLog string `json:"reject_log"`
}

// Source identifies where the export comes from.
type Source struct {
	// Kind selects the source implementation: "file" or "sftp".
	Kind string `json:"kind"`

	File SourceFile `json:"file"`
	SFTP SourceSFTP `json:"sftp"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceSFTP holds configuration for the "sftp" source kind.
type SourceSFTP struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	KeyFile    string `json:"key_file"`
	KnownHosts string `json:"known_hosts"`
	Path       string `json:"path"`
	// TimeoutSeconds bounds dial and handshake; 0 uses the source default.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Parser selects how to parse the raw export.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), infer_types (bool), lazy_quotes (bool)
	Options Options `json:"options"`
}

// Transform configures the canonical-schema transformation and load policy.
type Transform struct {
	// BusinessGroupsFile optionally replaces the built-in business code to
	// business group table with a YAML mapping.
	BusinessGroupsFile string `json:"business_groups_file"`

	// Fallback names the policy for rows whose insert fails: "null_row"
	// (default) or "skip".
	Fallback string `json:"fallback"`
}

// Storage selects the sink used to persist canonical rows.
type Storage struct {
	// Kind selects the backend: "mssql", "postgres", "sqlite", or "mysql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the destination table.
type DBConfig struct {
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified
	// (e.g. "dbo.emp_master").
	Table string `json:"table"`

	// AutoCreateTable creates the table with the canonical columns when it
	// does not exist.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Default values applied by Decode.
const (
	DefaultJob   = "empmaster"
	DefaultTable = "emp_master"
)

// Decode reads a pipeline from r and fills defaults. Unknown fields are
// rejected so typos surface instead of silently falling back.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline: %w", err)
	}
	p.applyDefaults()
	return p, nil
}

// LoadFile decodes the pipeline file at path.
func LoadFile(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open pipeline: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func (p *Pipeline) applyDefaults() {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Storage.DB.Table == "" {
		p.Storage.DB.Table = DefaultTable
	}
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type.
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

// Int returns the int value for key or def. JSON numbers decode as float64.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
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

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
