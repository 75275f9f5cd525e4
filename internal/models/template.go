package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTemplateType is returned for a template type outside the closed set
var ErrUnknownTemplateType = errors.New("unknown template type")

// TemplateType decides the structural rules of an evaluation template
type TemplateType string

const (
	TemplateBattalion TemplateType = "BATTALION"
	TemplateCompany   TemplateType = "COMPANY"
	TemplateService   TemplateType = "SERVICE"
)

// ParseTemplateType normalizes a raw template type
func ParseTemplateType(raw string) (TemplateType, error) {
	t := TemplateType(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case TemplateBattalion, TemplateCompany, TemplateService:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplateType, raw)
}

// Template is an evaluation form definition: template → sections → questions
type Template struct {
	ID                    *int64       `json:"id" yaml:"-"`
	Name                  string       `json:"name" yaml:"name"`
	Description           string       `json:"description" yaml:"description"`
	TemplateType          TemplateType `json:"templateType" yaml:"type"`
	BattalionCount        *int         `json:"battalionCount,omitempty" yaml:"battalion_count,omitempty"`
	TeacherEvaluatorCount *int         `json:"teacherEvaluatorCount,omitempty" yaml:"teacher_evaluator_count,omitempty"`
	Sections              []Section    `json:"sections" yaml:"sections"`
}

// Section is a titled group of questions, ordered 1..N within its template
type Section struct {
	ID           *int64     `json:"id,omitempty" yaml:"-"`
	SectionOrder int        `json:"sectionOrder" yaml:"-"`
	Title        string     `json:"title" yaml:"title"`
	Questions    []Question `json:"questions" yaml:"questions"`
}

// Question is a scored prompt, numbered 1..M within its section
type Question struct {
	ID       int    `json:"id" yaml:"-"`
	Prompt   string `json:"prompt" yaml:"prompt"`
	MaxScore int    `json:"maxScore" yaml:"max_score"`
}

// IsPersisted reports whether the template has been saved by the API
func (t *Template) IsPersisted() bool {
	return t.ID != nil
}

// Clone returns a deep copy of the template tree
func (t Template) Clone() Template {
	c := t
	if t.ID != nil {
		id := *t.ID
		c.ID = &id
	}
	if t.BattalionCount != nil {
		n := *t.BattalionCount
		c.BattalionCount = &n
	}
	if t.TeacherEvaluatorCount != nil {
		n := *t.TeacherEvaluatorCount
		c.TeacherEvaluatorCount = &n
	}
	if t.Sections != nil {
		c.Sections = make([]Section, len(t.Sections))
		for i, s := range t.Sections {
			c.Sections[i] = s.clone()
		}
	}
	return c
}

func (s Section) clone() Section {
	c := s
	if s.ID != nil {
		id := *s.ID
		c.ID = &id
	}
	if s.Questions != nil {
		c.Questions = append([]Question(nil), s.Questions...)
	}
	return c
}

// TotalMaxScore sums the max score of every question
func (t *Template) TotalMaxScore() int {
	var total int
	for _, s := range t.Sections {
		for _, q := range s.Questions {
			total += q.MaxScore
		}
	}
	return total
}
