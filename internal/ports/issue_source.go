package ports

import (
	"context"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

type IssueSource interface {
	ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	ListColleges(ctx context.Context) ([]domain.College, error)
}

type SnapshotRepository interface {
	Load(ctx context.Context) (domain.IssueSnapshot, error)
	Save(ctx context.Context, snapshot domain.IssueSnapshot) error
}
