// Package analysis defines the documentation-analysis domain types shared by
// the gateway, the lifecycle controller, and the rendering layer.
package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Status is a backend-reported lifecycle status. Unknown values are carried
// verbatim; only StatusCompleted and StatusFailed are terminal.
type Status string

// Known statuses reported by the analysis service.
const (
	StatusPending                 Status = "pending"
	StatusFetchingStructure       Status = "fetching_structure"
	StatusAnalyzingFiles          Status = "analyzing_files"
	StatusGeneratingDocumentation Status = "generating_documentation"
	StatusStoringEmbeddings       Status = "storing_embeddings"
	StatusCompleted               Status = "completed"
	StatusFailed                  Status = "failed"
)

// IsTerminal reports whether the status ends a watch.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// InProgress reports whether the status is one of the known working states.
func (s Status) InProgress() bool {
	switch s {
	case StatusAnalyzingFiles, StatusGeneratingDocumentation, StatusStoringEmbeddings, StatusFetchingStructure:
		return true
	default:
		return false
	}
}

// Label returns a display form of the status ("analyzing_files" -> "Analyzing files").
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	words := strings.ReplaceAll(string(s), "_", " ")
	return strings.ToUpper(words[:1]) + words[1:]
}

// Result is the payload of a completed task.
type Result struct {
	Documentation string        `json:"result"`
	Architecture  *Architecture `json:"architecture,omitempty"`
}

// UnmarshalJSON coerces a non-string "result" field into its JSON text so the
// documentation is always a string.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Documentation json.RawMessage `json:"result"`
		Architecture  *Architecture   `json:"architecture"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Architecture = raw.Architecture
	r.Documentation = ""

	doc := bytes.TrimSpace(raw.Documentation)
	switch {
	case len(doc) == 0 || bytes.Equal(doc, []byte("null")):
	case doc[0] == '"':
		if err := json.Unmarshal(doc, &r.Documentation); err != nil {
			return err
		}
	default:
		r.Documentation = string(doc)
	}
	return nil
}

// Architecture is the dependency data generated alongside the documentation.
// The client decodes and persists it; drawing it is the renderer's concern.
type Architecture struct {
	Components   map[string]Component `json:"components,omitempty"`
	Dependencies []Dependency         `json:"dependencies,omitempty"`
	Structure    Structure            `json:"structure"`
	Metrics      Metrics              `json:"metrics"`
}

// Component is a single module discovered in the analysed repository.
type Component struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	FilePath string `json:"file_path"`
}

// Dependency is a directed edge between two components.
type Dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Structure summarises the layering of the repository.
type Structure struct {
	Layers     []string `json:"layers,omitempty"`
	Patterns   []string `json:"patterns,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
}

// Metrics are aggregate dependency statistics.
type Metrics struct {
	TotalComponents       int     `json:"total_components"`
	TotalDependencies     int     `json:"total_dependencies"`
	DependencyDensity     float64 `json:"dependency_density"`
	MostDependedComponent string  `json:"most_depended_component,omitempty"`
}

// HistoryEntry summarises a previous analysis as listed by the service.
type HistoryEntry struct {
	ID         string    `json:"id"`
	RepoName   string    `json:"repo_name"`
	Status     Status    `json:"status"`
	UpdatedAt  Timestamp `json:"updated_at"`
	CreatedAt  Timestamp `json:"created_at,omitzero"`
	CommitHash string    `json:"commit_hash,omitempty"`
}

// ShortCommit returns the first seven characters of the commit hash.
func (e HistoryEntry) ShortCommit() string {
	if len(e.CommitHash) > 7 {
		return e.CommitHash[:7]
	}
	return e.CommitHash
}

// Owner returns the owner half of RepoName, or "" if RepoName has no slash.
func (e HistoryEntry) Owner() string {
	owner, _, ok := strings.Cut(e.RepoName, "/")
	if !ok {
		return ""
	}
	return owner
}

// Name returns the repository half of RepoName.
func (e HistoryEntry) Name() string {
	_, name, ok := strings.Cut(e.RepoName, "/")
	if !ok {
		return e.RepoName
	}
	return name
}

// RepoNameFromURL derives "owner/name" from a repository URL the same way the
// service does: the last two path segments, with a trailing ".git" dropped.
func RepoNameFromURL(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(url), "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return trimmed
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

// Timestamp decodes the service's timestamps, which may omit the zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC3339 and zone-less ISO timestamps. Unparseable
// values decode to the zero time rather than failing the whole list.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

// MarshalJSON writes RFC3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// Relative renders the timestamp relative to now ("5m ago", "3h ago"),
// falling back to a short date after a day.
func (t Timestamp) Relative(now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t.Time)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return formatUnit(int(d.Minutes()), "m")
	case d < 24*time.Hour:
		return formatUnit(int(d.Hours()), "h")
	default:
		return t.Format("Jan 2 15:04")
	}
}

func formatUnit(n int, unit string) string {
	return strconv.Itoa(n) + unit + " ago"
}
