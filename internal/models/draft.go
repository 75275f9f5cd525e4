package models

import "time"

// EditorState is the state of the template builder modal
type EditorState string

const (
	EditorClosed EditorState = "closed"
	EditorOpen   EditorState = "open"
	EditorSaving EditorState = "saving"
)

// EditorMode tells whether the builder creates or edits a template
type EditorMode string

const (
	ModeCreate EditorMode = "create"
	ModeEdit   EditorMode = "edit"
)

// Draft is a template builder session held by the console between requests
type Draft struct {
	ID         string      `json:"id"`
	SessionKey string      `json:"-"`
	Mode       EditorMode  `json:"mode"`
	State      EditorState `json:"state"`
	Template   Template    `json:"template"`
	Snapshot   *Template   `json:"snapshot,omitempty"`
	LastError  string      `json:"lastError,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// IsDirty reports whether the working tree differs from the last-saved snapshot
// in any field that is sent on submit.
func (d *Draft) IsDirty() bool {
	if d.Snapshot == nil {
		return true
	}
	return !templatesEqual(d.Template, *d.Snapshot)
}

func templatesEqual(a, b Template) bool {
	if a.Name != b.Name || a.Description != b.Description || a.TemplateType != b.TemplateType {
		return false
	}
	if !intPtrEqual(a.BattalionCount, b.BattalionCount) || !intPtrEqual(a.TeacherEvaluatorCount, b.TeacherEvaluatorCount) {
		return false
	}
	if len(a.Sections) != len(b.Sections) {
		return false
	}
	for i := range a.Sections {
		sa, sb := a.Sections[i], b.Sections[i]
		if sa.Title != sb.Title || sa.SectionOrder != sb.SectionOrder || len(sa.Questions) != len(sb.Questions) {
			return false
		}
		for j := range sa.Questions {
			if sa.Questions[j] != sb.Questions[j] {
				return false
			}
		}
	}
	return true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
