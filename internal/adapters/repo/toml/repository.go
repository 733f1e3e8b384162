package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	SnapshotPathKey = "snapshot_path"

	snapshotFileMode = 0o600
	snapshotDirMode  = 0o700
	snapshotStateDir = "ait"
	snapshotFile     = "issues.toml"
	tempFilePattern  = ".issues-*.toml.tmp"
	timeLayout       = time.RFC3339Nano
)

// SnapshotRepository keeps the last fetched issue listing in a TOML file so the
// dashboard can render offline.
type SnapshotRepository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository reads the file location from snapshot_path, defaulting
// to issues.toml under the user's state directory.
func NewSnapshotRepository(cfg *viper.Viper) (*SnapshotRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	defaultPath, err := defaultSnapshotPath()
	if err != nil {
		return nil, err
	}
	cfg.SetDefault(SnapshotPathKey, defaultPath)

	path := cfg.GetString(SnapshotPathKey)
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}
	path, err = normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &SnapshotRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *SnapshotRepository) Path() string {
	return r.path
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot domain.IssueSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := toSchema(snapshot)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// Load returns the stored snapshot, or domain.ErrSnapshotNotFound before the
// first Save.
func (r *SnapshotRepository) Load(ctx context.Context) (domain.IssueSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.IssueSnapshot{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.IssueSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.IssueSnapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.IssueSnapshot{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.IssueSnapshot{}, err
	}
	file.applyDefaults()

	return fromSchema(file)
}

func defaultSnapshotPath() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, snapshotStateDir, snapshotFile), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "state", snapshotStateDir, snapshotFile), nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve snapshot path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *SnapshotRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), snapshotDirMode); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode snapshot file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp snapshot file: %w", err)
	}

	if err := tempFile.Chmod(snapshotFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp snapshot file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp snapshot file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(snapshot domain.IssueSnapshot) fileSchema {
	file := fileSchema{
		Version:   currentSchemaVersion,
		BaseURL:   snapshot.BaseURL,
		FetchedAt: formatTime(snapshot.FetchedAt),
		Filter: filterSchema{
			Status:     string(snapshot.Filter.Status),
			Priority:   string(snapshot.Filter.Priority),
			College:    snapshot.Filter.College,
			AssignedTo: snapshot.Filter.AssignedTo,
		},
		Issues:   make([]issueSchema, 0, len(snapshot.Issues)),
		Colleges: make([]collegeSchema, 0, len(snapshot.Colleges)),
	}

	for _, issue := range snapshot.Issues {
		entry := issueSchema{
			ID:          int64(issue.ID),
			Title:       issue.Title,
			Description: issue.Description,
			Category:    issue.Category,
			Status:      string(issue.Status),
			Priority:    string(issue.Priority),
			College:     issue.College,
			CourseUnit:  issue.CourseUnit,
			AssignedTo:  issue.AssignedTo,
			CreatedAt:   formatTime(issue.CreatedAt),
			UpdatedAt:   formatTime(issue.UpdatedAt),
		}
		if issue.ResolvedAt != nil {
			entry.ResolvedAt = formatTime(*issue.ResolvedAt)
		}
		file.Issues = append(file.Issues, entry)
	}

	for _, college := range snapshot.Colleges {
		file.Colleges = append(file.Colleges, collegeSchema{ID: college.ID, Name: college.Name, Code: college.Code})
	}

	return file
}

func fromSchema(file fileSchema) (domain.IssueSnapshot, error) {
	fetchedAt, err := parseTime(file.FetchedAt)
	if err != nil {
		return domain.IssueSnapshot{}, fmt.Errorf("parse snapshot fetched_at: %w", err)
	}

	snapshot := domain.IssueSnapshot{
		BaseURL:   file.BaseURL,
		FetchedAt: fetchedAt,
		Filter: domain.IssueFilter{
			Status:     domain.IssueStatus(file.Filter.Status),
			Priority:   domain.IssuePriority(file.Filter.Priority),
			College:    file.Filter.College,
			AssignedTo: file.Filter.AssignedTo,
		},
		Issues:   make([]domain.Issue, 0, len(file.Issues)),
		Colleges: make([]domain.College, 0, len(file.Colleges)),
	}

	for _, entry := range file.Issues {
		issue := domain.Issue{
			ID:          domain.IssueID(entry.ID),
			Title:       entry.Title,
			Description: entry.Description,
			Category:    entry.Category,
			Status:      domain.IssueStatus(entry.Status),
			Priority:    domain.IssuePriority(entry.Priority),
			College:     entry.College,
			CourseUnit:  entry.CourseUnit,
			AssignedTo:  entry.AssignedTo,
		}
		if issue.CreatedAt, err = parseTime(entry.CreatedAt); err != nil {
			return domain.IssueSnapshot{}, fmt.Errorf("parse created_at of issue %d: %w", entry.ID, err)
		}
		if issue.UpdatedAt, err = parseTime(entry.UpdatedAt); err != nil {
			return domain.IssueSnapshot{}, fmt.Errorf("parse updated_at of issue %d: %w", entry.ID, err)
		}
		if entry.ResolvedAt != "" {
			resolvedAt, err := parseTime(entry.ResolvedAt)
			if err != nil {
				return domain.IssueSnapshot{}, fmt.Errorf("parse resolved_at of issue %d: %w", entry.ID, err)
			}
			issue.ResolvedAt = &resolvedAt
		}
		snapshot.Issues = append(snapshot.Issues, issue)
	}

	for _, entry := range file.Colleges {
		snapshot.Colleges = append(snapshot.Colleges, domain.College{ID: entry.ID, Name: entry.Name, Code: entry.Code})
	}

	return snapshot, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, raw)
}
