package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hanko-field/schedule/internal/domain"
)

type snapshotFile struct {
	Projects []snapshotProject `yaml:"projects"`
}

type snapshotProject struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	Status       string          `yaml:"status"`
	StartDate    time.Time       `yaml:"start_date"`
	EndDate      time.Time       `yaml:"end_date"`
	Progress     float64         `yaml:"progress"`
	Priority     string          `yaml:"priority"`
	Dependencies []string        `yaml:"dependencies"`
	TeamMembers  []string        `yaml:"team_members"`
	Stages       []snapshotStage `yaml:"stages"`
}

type snapshotStage struct {
	ID                string     `yaml:"id"`
	Name              string     `yaml:"name"`
	Order             int        `yaml:"order"`
	EstimatedDuration float64    `yaml:"estimated_duration"`
	ActualDuration    *float64   `yaml:"actual_duration"`
	Status            string     `yaml:"status"`
	Assignees         []string   `yaml:"assignees"`
	Dependencies      []string   `yaml:"dependencies"`
	StartDate         time.Time  `yaml:"start_date"`
	EndDate           time.Time  `yaml:"end_date"`
	ActualEndDate     *time.Time `yaml:"actual_end_date"`
	Cost              *float64   `yaml:"cost"`
	Quality           *float64   `yaml:"quality"`
	Progress          *float64   `yaml:"progress"`
	Partner           string     `yaml:"partner"`
}

// LoadSnapshotFile reads a YAML project snapshot from path, validating it with opts.
func LoadSnapshotFile(path string, opts ...domain.ValidateOption) ([]domain.ProductionProject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	projects, err := DecodeSnapshot(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}
	return projects, nil
}

// DecodeSnapshot parses a YAML document with a top-level projects list.
// The result is validated so a bad seed fails at startup rather than on first request.
func DecodeSnapshot(r io.Reader, opts ...domain.ValidateOption) ([]domain.ProductionProject, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file snapshotFile
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	projects := make([]domain.ProductionProject, 0, len(file.Projects))
	for _, p := range file.Projects {
		project := domain.ProductionProject{
			ID:           p.ID,
			Name:         p.Name,
			Status:       domain.ProjectStatus(p.Status),
			Start:        p.StartDate.UTC(),
			End:          p.EndDate.UTC(),
			Progress:     p.Progress,
			Priority:     domain.ProjectPriority(p.Priority),
			Dependencies: p.Dependencies,
			TeamMembers:  p.TeamMembers,
			Stages:       make([]domain.ProductionStage, 0, len(p.Stages)),
		}
		for _, s := range p.Stages {
			project.Stages = append(project.Stages, domain.ProductionStage{
				ID:                s.ID,
				Name:              s.Name,
				Order:             s.Order,
				EstimatedDuration: s.EstimatedDuration,
				ActualDuration:    s.ActualDuration,
				Status:            domain.StageStatus(s.Status),
				Assignees:         s.Assignees,
				Dependencies:      s.Dependencies,
				Start:             s.StartDate.UTC(),
				End:               s.EndDate.UTC(),
				ActualEnd:         s.ActualEndDate,
				Cost:              s.Cost,
				Quality:           s.Quality,
				Progress:          s.Progress,
				Partner:           s.Partner,
			})
		}
		projects = append(projects, project)
	}

	if err := domain.ValidateProjects(projects, opts...); err != nil {
		return nil, err
	}
	return projects, nil
}
