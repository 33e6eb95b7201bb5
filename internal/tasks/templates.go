package tasks

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/pulse/internal/models"
)

// templateFile is the YAML layout accepted by ImportTemplates
//
//	templates:
//	  - name: weekly-review
//	    title: Weekly review
//	    priority: high
//	    tags: [review]
//	    subtasks: [Inbox zero, Plan next week]
type templateFile struct {
	Templates []models.Template `yaml:"templates"`
}

// AddTemplate stores a reusable task template
func (s *Store) AddTemplate(ctx context.Context, tpl models.Template) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored models.Template
	err := s.apply(ctx, func(st *state) error {
		t, err := prepareTemplate(tpl)
		if err != nil {
			return err
		}
		st.Templates[t.ID] = &t
		stored = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func prepareTemplate(tpl models.Template) (models.Template, error) {
	tpl.Name = strings.TrimSpace(tpl.Name)
	tpl.Title = strings.TrimSpace(tpl.Title)
	if tpl.Name == "" {
		return tpl, fmt.Errorf("template name must not be empty")
	}
	if tpl.Title == "" {
		tpl.Title = tpl.Name
	}
	if tpl.Priority == "" {
		tpl.Priority = models.PriorityMedium
	}
	if !tpl.Priority.Valid() {
		return tpl, fmt.Errorf("%w: %q", ErrInvalidPriority, tpl.Priority)
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	tpl.Tags = normalizeTags(tpl.Tags)
	tpl.Subtasks = append([]string{}, tpl.Subtasks...)
	return tpl, nil
}

// ImportTemplates reads templates from YAML and stores them all or none
func (s *Store) ImportTemplates(ctx context.Context, r io.Reader) ([]models.Template, error) {
	var file templateFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var imported []models.Template
	err := s.apply(ctx, func(st *state) error {
		for _, tpl := range file.Templates {
			t, err := prepareTemplate(tpl)
			if err != nil {
				return fmt.Errorf("template %q: %w", tpl.Name, err)
			}
			st.Templates[t.ID] = &t
			imported = append(imported, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return imported, nil
}

// Templates returns all templates sorted by name
func (s *Store) Templates(ctx context.Context) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Template{}
	for _, t := range s.st.Templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateFromTemplate creates a task from a template, looked up by id or name
func (s *Store) CreateFromTemplate(ctx context.Context, ref string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl := s.findTemplate(ref)
	if tpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, ref)
	}

	var created *models.Task
	err := s.apply(ctx, func(st *state) error {
		t, err := s.newTask(CreateRequest{
			Title:       tpl.Title,
			Description: tpl.Description,
			Priority:    tpl.Priority,
			Tags:        tpl.Tags,
			Subtasks:    tpl.Subtasks,
		})
		if err != nil {
			return err
		}
		st.Tasks[t.ID] = t
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copyTask(created), nil
}

func (s *Store) findTemplate(ref string) *models.Template {
	if t, ok := s.st.Templates[ref]; ok {
		return t
	}
	for _, t := range s.st.Templates {
		if t.Name == ref {
			return t
		}
	}
	return nil
}
