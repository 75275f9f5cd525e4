package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terra-clan/academy-console/internal/models"
)

const (
	// DefaultSectionScore is the score given to a battalion section that has no question yet
	DefaultSectionScore = 10

	// DefaultQuestionScore is the max score of a freshly added question
	DefaultQuestionScore = 5
)

// Common errors
var (
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTypeLocked        = errors.New("template type cannot change once the template is saved")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnsupportedAction = errors.New("action not supported for this template type")
)

// NewTemplate returns a blank template of the given type
func NewTemplate(t models.TemplateType) models.Template {
	tmpl := models.Template{
		TemplateType: t,
		Sections:     []models.Section{},
	}
	Normalize(&tmpl)
	return tmpl
}

// Apply returns the tree produced by applying action to tree.
// tree is never modified. The result is always normalized; on error the
// original tree is returned unchanged.
func Apply(tree models.Template, action Action) (models.Template, error) {
	t := tree.Clone()

	if err := apply(&t, action); err != nil {
		return tree, err
	}

	Normalize(&t)
	return t, nil
}

// ApplyAll applies actions in order, stopping at the first error
func ApplyAll(tree models.Template, actions ...Action) (models.Template, error) {
	var err error
	for i, a := range actions {
		tree, err = Apply(tree, a)
		if err != nil {
			return tree, fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
	}
	return tree, nil
}

func apply(t *models.Template, a Action) error {
	battalion := t.TemplateType == models.TemplateBattalion

	switch a.Type {
	case ActionSetType:
		typ, err := models.ParseTemplateType(stringValue(a.Value))
		if err != nil {
			return err
		}
		if t.IsPersisted() && t.TemplateType != "" && typ != t.TemplateType {
			return ErrTypeLocked
		}
		t.TemplateType = typ

	case ActionAddSection:
		t.Sections = append(t.Sections, models.Section{Questions: []models.Question{}})

	case ActionRemoveSection:
		if !sectionInRange(t, a.Section) {
			return ErrIndexOutOfRange
		}
		t.Sections = append(t.Sections[:a.Section], t.Sections[a.Section+1:]...)

	case ActionAddQuestion:
		if !sectionInRange(t, a.Section) {
			return ErrIndexOutOfRange
		}
		if battalion {
			return nil
		}
		s := &t.Sections[a.Section]
		s.Questions = append(s.Questions, models.Question{MaxScore: DefaultQuestionScore})

	case ActionRemoveQuestion:
		if !questionInRange(t, a.Section, a.Question) {
			return ErrIndexOutOfRange
		}
		if battalion {
			return nil
		}
		s := &t.Sections[a.Section]
		s.Questions = append(s.Questions[:a.Question], s.Questions[a.Question+1:]...)

	case ActionSetName:
		t.Name = stringValue(a.Value)

	case ActionSetDescription:
		t.Description = stringValue(a.Value)

	case ActionSetBattalionCount:
		t.BattalionCount = optionalIntValue(a.Value)

	case ActionSetTeacherEvaluatorCount:
		t.TeacherEvaluatorCount = optionalIntValue(a.Value)

	case ActionSetSectionTitle:
		if !sectionInRange(t, a.Section) {
			return ErrIndexOutOfRange
		}
		t.Sections[a.Section].Title = stringValue(a.Value)

	case ActionSetSectionScore:
		if !battalion {
			return ErrUnsupportedAction
		}
		if !sectionInRange(t, a.Section) {
			return ErrIndexOutOfRange
		}
		s := &t.Sections[a.Section]
		score := intValue(a.Value)
		if len(s.Questions) == 0 {
			s.Questions = []models.Question{{MaxScore: score}}
		} else {
			s.Questions[0].MaxScore = score
		}

	case ActionSetQuestionPrompt:
		if !questionInRange(t, a.Section, a.Question) {
			return ErrIndexOutOfRange
		}
		t.Sections[a.Section].Questions[a.Question].Prompt = stringValue(a.Value)

	case ActionSetQuestionMaxScore:
		if !questionInRange(t, a.Section, a.Question) {
			return ErrIndexOutOfRange
		}
		t.Sections[a.Section].Questions[a.Question].MaxScore = intValue(a.Value)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	return nil
}

func sectionInRange(t *models.Template, i int) bool {
	return i >= 0 && i < len(t.Sections)
}

func questionInRange(t *models.Template, si, qi int) bool {
	return sectionInRange(t, si) && qi >= 0 && qi < len(t.Sections[si].Questions)
}

// Normalize re-derives every ordering field of the tree in place:
// sectionOrder becomes 1..N, question ids become 1..M within each section,
// and battalion sections are reduced to their single synthetic question.
func Normalize(t *models.Template) {
	if t.Sections == nil {
		t.Sections = []models.Section{}
	}

	for i := range t.Sections {
		s := &t.Sections[i]
		s.SectionOrder = i + 1

		if s.Questions == nil {
			s.Questions = []models.Question{}
		}
		if t.TemplateType == models.TemplateBattalion {
			s.Questions = []models.Question{syntheticQuestion(s)}
		}
		for j := range s.Questions {
			s.Questions[j].ID = j + 1
		}
	}
}

// syntheticQuestion builds the single question of a battalion section.
// Its prompt mirrors the section title; its max score is the section score,
// kept from the first existing question when there is one.
func syntheticQuestion(s *models.Section) models.Question {
	score := DefaultSectionScore
	if len(s.Questions) > 0 {
		score = s.Questions[0].MaxScore
	}
	return models.Question{
		ID:       1,
		Prompt:   s.Title,
		MaxScore: score,
	}
}

// PrepareSubmit returns the normalized payload sent to the API:
// trimmed text fields, and battalion counts only for battalion templates.
func PrepareSubmit(tree models.Template) models.Template {
	t := tree.Clone()
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)

	if t.TemplateType != models.TemplateBattalion {
		t.BattalionCount = nil
		t.TeacherEvaluatorCount = nil
	}
	for i := range t.Sections {
		t.Sections[i].Title = strings.TrimSpace(t.Sections[i].Title)
		for j := range t.Sections[i].Questions {
			q := &t.Sections[i].Questions[j]
			q.Prompt = strings.TrimSpace(q.Prompt)
			if q.MaxScore < 0 {
				q.MaxScore = 0
			}
		}
	}

	Normalize(&t)
	return t
}
