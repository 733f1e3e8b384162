package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamps without a zone are read in the local zone, as servers running
// with USE_TZ=False emit them.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads an RFC 3339 time or a naive one. The empty string is
// the zero time.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	// Zone offset without a colon, as some serializers write it.
	if t, err := time.Parse("2006-01-02T15:04:05.999999999Z0700", raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func (i *Issue) UnmarshalJSON(data []byte) error {
	type plain Issue
	var raw struct {
		plain
		CreatedAt  string  `json:"created_at"`
		UpdatedAt  string  `json:"updated_at"`
		ResolvedAt *string `json:"resolved_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	issue := Issue(raw.plain)
	var err error
	if issue.CreatedAt, err = ParseTimestamp(raw.CreatedAt); err != nil {
		return fmt.Errorf("issue %d created_at: %w", issue.ID, err)
	}
	if issue.UpdatedAt, err = ParseTimestamp(raw.UpdatedAt); err != nil {
		return fmt.Errorf("issue %d updated_at: %w", issue.ID, err)
	}
	issue.ResolvedAt = nil
	if raw.ResolvedAt != nil {
		resolved, err := ParseTimestamp(*raw.ResolvedAt)
		if err != nil {
			return fmt.Errorf("issue %d resolved_at: %w", issue.ID, err)
		}
		if !resolved.IsZero() {
			issue.ResolvedAt = &resolved
		}
	}

	*i = issue
	return nil
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var raw struct {
		plain
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	comment := Comment(raw.plain)
	var err error
	if comment.CreatedAt, err = ParseTimestamp(raw.CreatedAt); err != nil {
		return fmt.Errorf("comment %d created_at: %w", comment.ID, err)
	}
	*c = comment
	return nil
}
