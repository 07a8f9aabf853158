package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/robfig/cron/v3"

	"empmaster/internal/loader"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config, e.g. "source.sftp.host".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var storageKinds = map[string]struct{}{
	"mssql":    {},
	"postgres": {},
	"sqlite":   {},
	"mysql":    {},
}

// ValidatePipeline statically checks p and returns every finding. It does
// not mutate p; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels logs and metrics")
	}

	switch p.Source.Kind {
	case "":
		add(SeverityError, "source.kind", "source.kind must not be empty")
	case "file":
		if strings.TrimSpace(p.Source.File.Path) == "" {
			add(SeverityError, "source.file.path", "file source requires a non-empty path")
		}
	case "sftp":
		s := p.Source.SFTP
		if s.Host == "" {
			add(SeverityError, "source.sftp.host", "sftp source requires a host")
		}
		if s.User == "" {
			add(SeverityError, "source.sftp.user", "sftp source requires a user")
		}
		if s.Path == "" {
			add(SeverityError, "source.sftp.path", "sftp source requires a remote path")
		}
		if s.Password == "" && s.KeyFile == "" {
			add(SeverityError, "source.sftp", "sftp source requires a password (or EMP_SFTP_PASSWORD) or key_file")
		}
		if s.Port < 0 || s.Port > 65535 {
			add(SeverityError, "source.sftp.port", "port %d is out of range", s.Port)
		}
		if s.KnownHosts == "" {
			add(SeverityWarning, "source.sftp.known_hosts", "host key will not be verified")
		}
	default:
		add(SeverityError, "source.kind", "unknown source kind %q; use \"file\" or \"sftp\"", p.Source.Kind)
	}

	if p.Parser.Kind != "csv" {
		add(SeverityError, "parser.kind", "unknown parser kind %q; only \"csv\" is supported", p.Parser.Kind)
	} else if c := p.Parser.Options.String("comma", ","); utf8.RuneCountInString(c) != 1 {
		add(SeverityError, "parser.options.comma", "comma must be a single character, got %q", c)
	}

	if _, err := loader.PolicyByName(p.Transform.Fallback); err != nil {
		add(SeverityError, "transform.fallback", "%v", err)
	} else if strings.EqualFold(strings.TrimSpace(p.Transform.Fallback), "skip") {
		add(SeverityWarning, "transform.fallback", "skipped rows shift the resume offset of later runs")
	}
	if f := p.Transform.BusinessGroupsFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			add(SeverityError, "transform.business_groups_file", "%v", err)
		}
	}

	if _, ok := storageKinds[strings.ToLower(p.Storage.Kind)]; !ok {
		add(SeverityError, "storage.kind", "unknown storage kind %q; use mssql, postgres, sqlite, or mysql", p.Storage.Kind)
	}
	if strings.TrimSpace(p.Storage.DB.DSN) == "" {
		add(SeverityError, "storage.db.dsn", "dsn must not be empty (or set EMP_DB_DSN)")
	}
	if strings.TrimSpace(p.Storage.DB.Table) == "" {
		add(SeverityError, "storage.db.table", "table must not be empty")
	}

	if p.Schedule != "" {
		if _, err := cron.ParseStandard(p.Schedule); err != nil {
			add(SeverityError, "schedule", "invalid cron expression: %v", err)
		}
	}
	return issues
}
