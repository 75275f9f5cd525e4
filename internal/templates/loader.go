package templates

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/academy-console/internal/builder"
	"github.com/terra-clan/academy-console/internal/models"
)

// Preset is a ready-made evaluation template a builder draft can start from
type Preset struct {
	ID       string          `json:"id"`
	Template models.Template `json:"template"`
}

// Loader manages loading and caching of template presets
type Loader struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewLoader creates a new preset loader
func NewLoader() *Loader {
	return &Loader{
		presets: make(map[string]*Preset),
	}
}

// LoadFromDir loads all YAML presets from a directory and its direct
// subdirectories. A preset in a subdirectory is keyed "dir/file".
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading template presets from directory", "dir", dir)

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)

		subMatches, err := filepath.Glob(filepath.Join(dir, "*", pattern))
		if err != nil {
			continue
		}
		files = append(files, subMatches...)
	}

	loaded := 0
	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

		if err := l.load(id, file); err != nil {
			slog.Warn("failed to load template preset", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("template presets loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single preset, keyed by its file name
func (l *Loader) LoadFromFile(path string) error {
	base := filepath.Base(path)
	return l.load(strings.TrimSuffix(base, filepath.Ext(base)), path)
}

func (l *Loader) load(id, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	tmpl, err := Parse(data)
	if err != nil {
		return err
	}

	l.Add(&Preset{ID: id, Template: tmpl})

	slog.Info("template preset loaded",
		"id", id,
		"name", tmpl.Name,
		"type", tmpl.TemplateType,
		"sections", len(tmpl.Sections),
	)
	return nil
}

// Parse decodes a YAML preset into a normalized template
func Parse(data []byte) (models.Template, error) {
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return models.Template{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if strings.TrimSpace(pf.Name) == "" {
		return models.Template{}, fmt.Errorf("template name is required")
	}

	typ := models.TemplateCompany
	if pf.Type != "" {
		t, err := models.ParseTemplateType(pf.Type)
		if err != nil {
			return models.Template{}, err
		}
		typ = t
	}

	tmpl := models.Template{
		Name:                  pf.Name,
		Description:           pf.Description,
		TemplateType:          typ,
		BattalionCount:        pf.BattalionCount,
		TeacherEvaluatorCount: pf.TeacherEvaluatorCount,
		Sections:              make([]models.Section, 0, len(pf.Sections)),
	}

	for _, sf := range pf.Sections {
		s := models.Section{Title: sf.Title, Questions: sf.Questions}
		if typ == models.TemplateBattalion && sf.Score != nil {
			s.Questions = []models.Question{{Prompt: sf.Title, MaxScore: *sf.Score}}
		}
		tmpl.Sections = append(tmpl.Sections, s)
	}

	builder.Normalize(&tmpl)
	return tmpl, nil
}

// Get retrieves a preset by id
func (l *Loader) Get(id string) *Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.presets[id]
}

// List returns all loaded presets ordered by id
func (l *Loader) List() []*Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Preset, 0, len(l.presets))
	for _, p := range l.presets {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add programmatically adds a preset
func (l *Loader) Add(p *Preset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.presets[p.ID] = p
}

// Remove removes a preset by id
func (l *Loader) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.presets, id)
}

// presetFile represents the YAML structure of a preset file
type presetFile struct {
	Name                  string        `yaml:"name"`
	Description           string        `yaml:"description"`
	Type                  string        `yaml:"type"`
	BattalionCount        *int          `yaml:"battalion_count"`
	TeacherEvaluatorCount *int          `yaml:"teacher_evaluator_count"`
	Sections              []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	Title     string            `yaml:"title"`
	Score     *int              `yaml:"score"`
	Questions []models.Question `yaml:"questions"`
}
