package builder

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/academy-console/internal/models"
)

// ErrNotOpen is returned when an edit or submit reaches a draft that is not open
var ErrNotOpen = errors.New("template editor is not open")

// OpenCreate starts a draft for a new template, optionally pre-filled from base
func OpenCreate(sessionKey string, base *models.Template) *models.Draft {
	var tmpl models.Template
	if base != nil {
		tmpl = base.Clone()
		tmpl.ID = nil
		for i := range tmpl.Sections {
			tmpl.Sections[i].ID = nil
		}
		if tmpl.TemplateType == "" {
			tmpl.TemplateType = models.TemplateCompany
		}
		Normalize(&tmpl)
	} else {
		tmpl = NewTemplate(models.TemplateCompany)
	}

	return newDraft(sessionKey, models.ModeCreate, tmpl, nil)
}

// OpenEdit starts a draft over a persisted template
func OpenEdit(sessionKey string, saved models.Template) (*models.Draft, error) {
	if !saved.IsPersisted() {
		return nil, fmt.Errorf("edit requires a saved template")
	}
	tmpl := saved.Clone()
	Normalize(&tmpl)
	snapshot := tmpl.Clone()
	return newDraft(sessionKey, models.ModeEdit, tmpl, &snapshot), nil
}

func newDraft(sessionKey string, mode models.EditorMode, tmpl models.Template, snapshot *models.Template) *models.Draft {
	now := time.Now().UTC()
	return &models.Draft{
		ID:         uuid.New().String(),
		SessionKey: sessionKey,
		Mode:       mode,
		State:      models.EditorOpen,
		Template:   tmpl,
		Snapshot:   snapshot,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Dispatch applies an action to an open draft
func Dispatch(d *models.Draft, action Action) error {
	if d.State != models.EditorOpen {
		return ErrNotOpen
	}
	tree, err := Apply(d.Template, action)
	if err != nil {
		return err
	}
	d.Template = tree
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// BeginSave validates an open draft and moves it to Saving.
// It returns the payload to send. On a validation error the draft stays Open
// and its tree is untouched.
func BeginSave(d *models.Draft) (models.Template, error) {
	if d.State != models.EditorOpen {
		return models.Template{}, ErrNotOpen
	}
	if err := Validate(d.Template); err != nil {
		return models.Template{}, err
	}
	d.State = models.EditorSaving
	d.LastError = ""
	d.UpdatedAt = time.Now().UTC()
	return PrepareSubmit(d.Template), nil
}

// FinishSave completes a save started with BeginSave.
// Success closes the editor and adopts the server's object; failure reopens it
// with the working tree unchanged.
func FinishSave(d *models.Draft, saved *models.Template, saveErr error) {
	d.UpdatedAt = time.Now().UTC()
	if saveErr != nil {
		d.State = models.EditorOpen
		d.LastError = saveErr.Error()
		return
	}
	if saved != nil {
		d.Template = saved.Clone()
		Normalize(&d.Template)
	}
	snapshot := d.Template.Clone()
	d.Snapshot = &snapshot
	d.Mode = models.ModeEdit
	d.State = models.EditorClosed
	d.LastError = ""
}

// Cancel closes the editor and discards unsaved edits
func Cancel(d *models.Draft) {
	if d.Snapshot != nil {
		d.Template = d.Snapshot.Clone()
	}
	d.State = models.EditorClosed
	d.UpdatedAt = time.Now().UTC()
}
