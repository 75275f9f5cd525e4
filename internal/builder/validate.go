package builder

import (
	"strings"

	"github.com/terra-clan/academy-console/internal/models"
)

// FieldError is used to indicate an error with a specific template field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError blocks a submission
type ValidationError struct {
	Fields []FieldError
}

func (err *ValidationError) Error() string {
	if len(err.Fields) == 0 {
		return "invalid template"
	}
	return err.Fields[0].Error
}

// FieldNames returns the names of the invalid fields
func (err *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Validate runs the submission checks. It never modifies the tree.
func Validate(t models.Template) error {
	var fields []FieldError

	if strings.TrimSpace(t.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Error: "template name is required"})
	}
	if len(t.Sections) == 0 {
		fields = append(fields, FieldError{Field: "sections", Error: "add at least one section"})
	}
	if t.TemplateType == models.TemplateBattalion {
		if t.TeacherEvaluatorCount == nil || *t.TeacherEvaluatorCount < 1 {
			fields = append(fields, FieldError{
				Field: "teacherEvaluatorCount",
				Error: "teacher evaluator count must be at least 1",
			})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
