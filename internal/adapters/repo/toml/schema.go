package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int             `toml:"version"`
	BaseURL   string          `toml:"base_url"`
	FetchedAt string          `toml:"fetched_at"`
	Filter    filterSchema    `toml:"filter"`
	Colleges  []collegeSchema `toml:"colleges"`
	Issues    []issueSchema   `toml:"issues"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type filterSchema struct {
	Status     string `toml:"status,omitempty"`
	Priority   string `toml:"priority,omitempty"`
	College    string `toml:"college,omitempty"`
	AssignedTo *int64 `toml:"assigned_to,omitempty"`
}

type collegeSchema struct {
	ID   int64  `toml:"id"`
	Name string `toml:"name"`
	Code string `toml:"code,omitempty"`
}

type issueSchema struct {
	ID          int64  `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description,omitempty"`
	Category    string `toml:"category,omitempty"`
	Status      string `toml:"status"`
	Priority    string `toml:"priority"`
	College     string `toml:"college,omitempty"`
	CourseUnit  string `toml:"course_unit,omitempty"`
	AssignedTo  *int64 `toml:"assigned_to,omitempty"`
	CreatedAt   string `toml:"created_at"`
	UpdatedAt   string `toml:"updated_at,omitempty"`
	ResolvedAt  string `toml:"resolved_at,omitempty"`
}
