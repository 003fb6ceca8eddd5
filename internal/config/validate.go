package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Build.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "products[2].plan_code"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateBuild performs static validation of a Build. It does not touch the
// filesystem or the database.
func ValidateBuild(b Build) []Issue {
	var issues []Issue

	if strings.TrimSpace(b.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be pushed without a job label",
		})
	}
	issues = append(issues, validateSources(b.Sources)...)
	issues = append(issues, validateProducts(b.Products)...)
	if strings.TrimSpace(b.Artifacts.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "artifacts.dir",
			Message:  "artifacts.dir must not be empty",
		})
	}
	issues = append(issues, validateStorage(b.Storage)...)
	issues = append(issues, validateRuntime(b.Runtime)...)

	return issues
}

func validateSources(s Sources) []Issue {
	var issues []Issue

	files := []struct{ path, name string }{
		{"sources.files.rate_description", s.Files.RateDescription},
		{"sources.files.premium_rate", s.Files.PremiumRate},
		{"sources.files.band", s.Files.Band},
		{"sources.files.modal_profile", s.Files.ModalProfile},
		{"sources.files.cash_value", s.Files.CashValue},
	}
	for _, f := range files {
		if strings.TrimSpace(f.name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  "source file name must not be empty",
			})
		}
	}

	if s.Remote() {
		if _, err := url.Parse(s.Dir); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sources.dir",
				Message:  fmt.Sprintf("invalid source URL: %v", err),
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "sources.http.insecure_skip_verify",
				Message:  "TLS certificates of the source server are not verified",
			})
		}
	}
	if s.HTTP.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.http.timeout_seconds",
			Message:  "timeout_seconds must be >= 0",
		})
	}

	switch s.Parser.Kind {
	case "", "csv", "xlsx":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; expected csv or xlsx", s.Parser.Kind),
		})
	}

	if v, ok := s.Parser.Options["comma"]; ok {
		c, isString := v.(string)
		if !isString || utf8.RuneCountInString(c) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sources.parser.options.comma",
				Message:  "comma must be a single character",
			})
		}
	}
	if s.Parser.Kind == "csv" {
		if _, ok := s.Parser.Options["sheet"]; ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "sources.parser.options.sheet",
				Message:  "sheet is ignored by the csv parser",
			})
		}
	}

	return issues
}

func validateProducts(ps []Product) []Issue {
	var issues []Issue

	if len(ps) == 0 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "products",
			Message:  "at least one product is required",
		})
	}

	seen := make(map[string]int, len(ps))
	for i, p := range ps {
		path := fmt.Sprintf("products[%d]", i)
		code := strings.TrimSpace(p.PlanCode)
		switch {
		case code == "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".plan_code",
				Message:  "plan_code must not be empty",
			})
			continue
		case code != strings.ToLower(code):
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".plan_code",
				Message:  fmt.Sprintf("plan_code %q is matched case-insensitively as %q", p.PlanCode, strings.ToLower(code)),
			})
		}
		key := strings.ToLower(code)
		if prev, dup := seen[key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".plan_code",
				Message:  fmt.Sprintf("duplicate plan_code %q (also products[%d])", key, prev),
			})
		} else {
			seen[key] = i
		}
		if p.MinimumFaceAmount <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".minimum_face_amount",
				Message:  "minimum_face_amount must be > 0",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "sqlite", "postgres", "mssql":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if s.Kind == "sqlite" && s.DB.DSN == ":memory:" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.dsn",
			Message:  "an in-memory sqlite store is discarded when the load finishes",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must be >= 0",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must be >= 0",
		})
	}
	if r.BatchSize > 0 && r.BatchSize < 100 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  "batch_size below 100 makes loads slow",
		})
	}
	return issues
}
