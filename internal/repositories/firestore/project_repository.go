package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/hanko-field/schedule/internal/domain"
	pfirestore "github.com/hanko-field/schedule/internal/platform/firestore"
	"github.com/hanko-field/schedule/internal/repositories"
)

// ProjectRepository stores production projects as single documents with embedded stages.
type ProjectRepository struct {
	coll *pfirestore.Collection[projectDocument]
}

var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository constructs a Firestore-backed project repository.
func NewProjectRepository(provider *pfirestore.Provider) (*ProjectRepository, error) {
	if provider == nil {
		return nil, errors.New("project repository requires firestore provider")
	}
	name := provider.Collection()
	if name == "" {
		return nil, errors.New("project repository: collection name is required")
	}
	return &ProjectRepository{
		coll: pfirestore.NewCollection[projectDocument](provider, name, nil, pfirestore.StructDecoder[projectDocument]()),
	}, nil
}

// List returns every project ordered by document id.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.ProductionProject, error) {
	docs, err := r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	return decodeProjects(docs), nil
}

// FindByIDs fetches the requested projects in one batch, preserving request order.
func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.ProductionProject, error) {
	docs, err := r.coll.GetAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.ProductionProject, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc.toDomain()
	}
	out := make([]domain.ProductionProject, 0, len(byID))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if project, ok := byID[id]; ok {
			out = append(out, project)
		}
	}
	return out, nil
}

// FindByID fetches one project.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (domain.ProductionProject, error) {
	doc, err := r.coll.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ProductionProject{}, err
	}
	return doc.toDomain(), nil
}

// Save upserts project keyed by its id.
func (r *ProjectRepository) Save(ctx context.Context, project domain.ProductionProject) error {
	id := strings.TrimSpace(project.ID)
	if id == "" {
		return errors.New("project repository: project id is required")
	}
	if err := r.coll.Set(ctx, id, encodeProject(project)); err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	return nil
}

// Ping issues a single-document read to confirm the collection is reachable.
func (r *ProjectRepository) Ping(ctx context.Context) error {
	_, err := r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Select().Limit(1)
	})
	return err
}

type projectDocument struct {
	ID           string          `firestore:"id"`
	Name         string          `firestore:"name"`
	Status       string          `firestore:"status"`
	StartDate    time.Time       `firestore:"startDate"`
	EndDate      time.Time       `firestore:"endDate"`
	Progress     float64         `firestore:"progress"`
	Priority     string          `firestore:"priority"`
	Dependencies []string        `firestore:"dependencies,omitempty"`
	TeamMembers  []string        `firestore:"teamMembers,omitempty"`
	Stages       []stageDocument `firestore:"stages"`
}

type stageDocument struct {
	ID                string     `firestore:"id"`
	Name              string     `firestore:"name"`
	Order             int        `firestore:"order"`
	EstimatedDuration float64    `firestore:"estimatedDuration"`
	ActualDuration    *float64   `firestore:"actualDuration,omitempty"`
	Status            string     `firestore:"status"`
	Assignees         []string   `firestore:"assignees,omitempty"`
	Dependencies      []string   `firestore:"dependencies,omitempty"`
	StartDate         time.Time  `firestore:"startDate"`
	EndDate           time.Time  `firestore:"endDate"`
	ActualEndDate     *time.Time `firestore:"actualEndDate,omitempty"`
	Cost              *float64   `firestore:"cost,omitempty"`
	Quality           *float64   `firestore:"quality,omitempty"`
	Progress          *float64   `firestore:"progress,omitempty"`
	Partner           string     `firestore:"partner"`
}

func decodeProjects(docs []projectDocument) []domain.ProductionProject {
	out := make([]domain.ProductionProject, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out
}

func (d projectDocument) toDomain() domain.ProductionProject {
	project := domain.ProductionProject{
		ID:           d.ID,
		Name:         d.Name,
		Status:       domain.ProjectStatus(d.Status),
		Start:        d.StartDate.UTC(),
		End:          d.EndDate.UTC(),
		Progress:     d.Progress,
		Priority:     domain.ProjectPriority(d.Priority),
		Dependencies: cloneStrings(d.Dependencies),
		TeamMembers:  cloneStrings(d.TeamMembers),
		Stages:       make([]domain.ProductionStage, 0, len(d.Stages)),
	}
	for _, s := range d.Stages {
		stage := domain.ProductionStage{
			ID:                s.ID,
			Name:              s.Name,
			Order:             s.Order,
			EstimatedDuration: s.EstimatedDuration,
			ActualDuration:    s.ActualDuration,
			Status:            domain.StageStatus(s.Status),
			Assignees:         cloneStrings(s.Assignees),
			Dependencies:      cloneStrings(s.Dependencies),
			Start:             s.StartDate.UTC(),
			End:               s.EndDate.UTC(),
			Cost:              s.Cost,
			Quality:           s.Quality,
			Progress:          s.Progress,
			Partner:           s.Partner,
		}
		if s.ActualEndDate != nil {
			end := s.ActualEndDate.UTC()
			stage.ActualEnd = &end
		}
		project.Stages = append(project.Stages, stage)
	}
	return project
}

func encodeProject(p domain.ProductionProject) projectDocument {
	doc := projectDocument{
		ID:           p.ID,
		Name:         p.Name,
		Status:       string(p.Status),
		StartDate:    p.Start.UTC(),
		EndDate:      p.End.UTC(),
		Progress:     p.Progress,
		Priority:     string(p.Priority),
		Dependencies: cloneStrings(p.Dependencies),
		TeamMembers:  cloneStrings(p.TeamMembers),
		Stages:       make([]stageDocument, 0, len(p.Stages)),
	}
	for _, s := range p.Stages {
		stage := stageDocument{
			ID:                s.ID,
			Name:              s.Name,
			Order:             s.Order,
			EstimatedDuration: s.EstimatedDuration,
			ActualDuration:    s.ActualDuration,
			Status:            string(s.Status),
			Assignees:         cloneStrings(s.Assignees),
			Dependencies:      cloneStrings(s.Dependencies),
			StartDate:         s.Start.UTC(),
			EndDate:           s.End.UTC(),
			Cost:              s.Cost,
			Quality:           s.Quality,
			Progress:          s.Progress,
			Partner:           s.Partner,
		}
		if s.ActualEnd != nil {
			end := s.ActualEnd.UTC()
			stage.ActualEndDate = &end
		}
		doc.Stages = append(doc.Stages, stage)
	}
	return doc
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
