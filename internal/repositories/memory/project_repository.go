package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/hanko-field/schedule/internal/domain"
	"github.com/hanko-field/schedule/internal/repositories"
)

// ProjectRepository keeps production projects in process memory for local development and tests.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]domain.ProductionProject
}

var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository returns a repository holding copies of projects.
func NewProjectRepository(projects ...domain.ProductionProject) *ProjectRepository {
	repo := &ProjectRepository{projects: make(map[string]domain.ProductionProject, len(projects))}
	for _, p := range projects {
		repo.projects[p.ID] = cloneProject(p)
	}
	return repo
}

// List implements repositories.ProjectRepository.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.ProductionProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.ProductionProject, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneProject(r.projects[id]))
	}
	return out, nil
}

// FindByIDs implements repositories.ProjectRepository.
func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.ProductionProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ProductionProject, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.projects[id]; ok {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

// FindByID implements repositories.ProjectRepository.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (domain.ProductionProject, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductionProject{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[strings.TrimSpace(id)]
	if !ok {
		return domain.ProductionProject{}, repositories.NewNotFoundError("project %q not found", id)
	}
	return cloneProject(p), nil
}

// Save implements repositories.ProjectRepository.
func (r *ProjectRepository) Save(ctx context.Context, project domain.ProductionProject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(project.ID) == "" {
		return errors.New("project repository: project id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = cloneProject(project)
	return nil
}

// Ping implements repositories.ProjectRepository.
func (r *ProjectRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneProject(p domain.ProductionProject) domain.ProductionProject {
	out := p
	out.Dependencies = append([]string(nil), p.Dependencies...)
	out.TeamMembers = append([]string(nil), p.TeamMembers...)
	out.Stages = make([]domain.ProductionStage, len(p.Stages))
	for i, s := range p.Stages {
		c := s
		c.Assignees = append([]string(nil), s.Assignees...)
		c.Dependencies = append([]string(nil), s.Dependencies...)
		c.ActualDuration = cloneFloat(s.ActualDuration)
		c.Cost = cloneFloat(s.Cost)
		c.Quality = cloneFloat(s.Quality)
		c.Progress = cloneFloat(s.Progress)
		if s.ActualEnd != nil {
			t := *s.ActualEnd
			c.ActualEnd = &t
		}
		out.Stages[i] = c
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
