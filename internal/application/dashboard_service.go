package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/analytics"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var errNilIssueSource = errors.New("issue source is nil")

type DashboardQuery struct {
	Selection analytics.Selection
	// AssignedTo narrows the fetch to one assignee, the lecturer view.
	AssignedTo *int64
	// Offline reads the last saved snapshot instead of the service.
	Offline bool
}

func (q DashboardQuery) filter() domain.IssueFilter {
	filter := domain.IssueFilter{AssignedTo: q.AssignedTo}
	if q.Selection.Dimension != "" && q.Selection.Dimension != analytics.AllDimensions {
		filter.College = q.Selection.Dimension
	}
	return filter
}

type Dashboard struct {
	Summary   analytics.Summary `json:"summary" yaml:"summary"`
	Colleges  []domain.College  `json:"colleges" yaml:"colleges"`
	FetchedAt time.Time         `json:"fetched_at" yaml:"fetched_at"`
	Offline   bool              `json:"offline" yaml:"offline"`
}

type DashboardService struct {
	source    ports.IssueSource
	snapshots ports.SnapshotRepository
	clock     ports.Clock
	baseURL   string
	logger    zerolog.Logger
}

// NewDashboardService wires the issue source and snapshot store. A nil snapshots
// repository disables both snapshot saving and offline mode.
func NewDashboardService(source ports.IssueSource, snapshots ports.SnapshotRepository, clock ports.Clock, baseURL string, logger zerolog.Logger) *DashboardService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &DashboardService{
		source:    source,
		snapshots: snapshots,
		clock:     clock,
		baseURL:   baseURL,
		logger:    logger.With().Str("component", "dashboard").Logger(),
	}
}

// Fetch lists issues and colleges concurrently and saves the result as the
// offline snapshot. A failed save is logged, not returned.
func (s *DashboardService) Fetch(ctx context.Context, filter domain.IssueFilter) (domain.IssueSnapshot, error) {
	if s.source == nil {
		return domain.IssueSnapshot{}, errNilIssueSource
	}

	var (
		issues   []domain.Issue
		colleges []domain.College
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		listed, err := s.source.ListIssues(groupCtx, filter)
		if err != nil {
			return fmt.Errorf("list issues: %w", err)
		}
		issues = listed
		return nil
	})
	group.Go(func() error {
		listed, err := s.source.ListColleges(groupCtx)
		if err != nil {
			return fmt.Errorf("list colleges: %w", err)
		}
		colleges = listed
		return nil
	})
	if err := group.Wait(); err != nil {
		return domain.IssueSnapshot{}, err
	}

	snapshot := domain.IssueSnapshot{
		BaseURL:   s.baseURL,
		FetchedAt: s.clock.Now(),
		Filter:    filter,
		Issues:    issues,
		Colleges:  colleges,
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("save issue snapshot")
		}
	}

	s.logger.Debug().Int("issues", len(issues)).Int("colleges", len(colleges)).Msg("fetched issues")
	return snapshot, nil
}

func (s *DashboardService) Load(ctx context.Context, query DashboardQuery) (domain.IssueSnapshot, error) {
	if !query.Offline {
		return s.Fetch(ctx, query.filter())
	}

	if s.snapshots == nil {
		return domain.IssueSnapshot{}, domain.ErrSnapshotNotFound
	}
	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		return domain.IssueSnapshot{}, fmt.Errorf("load issue snapshot: %w", err)
	}
	if snapshot.BaseURL != "" && s.baseURL != "" && snapshot.BaseURL != s.baseURL {
		s.logger.Warn().Str("snapshot_base_url", snapshot.BaseURL).Msg("snapshot was fetched from another service")
	}
	return snapshot, nil
}

func (s *DashboardService) Dashboard(ctx context.Context, query DashboardQuery) (Dashboard, error) {
	snapshot, err := s.Load(ctx, query)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Summary:   analytics.Aggregate(snapshot.Issues, query.Selection, s.clock.Now()),
		Colleges:  snapshot.Colleges,
		FetchedAt: snapshot.FetchedAt,
		Offline:   query.Offline,
	}, nil
}

// Report aggregates a report locally from the loaded issues.
func (s *DashboardService) Report(ctx context.Context, query DashboardQuery, kind analytics.ReportType) (analytics.Report, error) {
	snapshot, err := s.Load(ctx, query)
	if err != nil {
		return analytics.Report{}, err
	}

	return analytics.BuildReport(snapshot.Issues, kind, query.Selection.Window, query.Selection.Dimension, s.clock.Now()), nil
}

// AlertMonitor reports priority issues the first time they are flagged.
type AlertMonitor struct {
	dashboards *DashboardService
	query      DashboardQuery

	mu   sync.Mutex
	seen map[domain.IssueID]struct{}
}

func NewAlertMonitor(dashboards *DashboardService, query DashboardQuery) *AlertMonitor {
	return &AlertMonitor{
		dashboards: dashboards,
		query:      query,
		seen:       make(map[domain.IssueID]struct{}),
	}
}

// Check returns priority issues not returned by an earlier Check. The first
// call returns every currently flagged issue.
func (m *AlertMonitor) Check(ctx context.Context) ([]domain.Issue, error) {
	snapshot, err := m.dashboards.Load(ctx, m.query)
	if err != nil {
		return nil, err
	}

	filtered := analytics.FilterByWindow(snapshot.Issues, m.query.Selection.Window, m.query.Selection.Dimension, m.dashboards.clock.Now())
	flagged := analytics.PriorityIssues(filtered, m.dashboards.clock.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := make([]domain.Issue, 0)
	for _, issue := range flagged {
		if _, ok := m.seen[issue.ID]; ok {
			continue
		}
		m.seen[issue.ID] = struct{}{}
		fresh = append(fresh, issue)
	}
	return fresh, nil
}
