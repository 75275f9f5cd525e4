package builder

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ActionType names a structural or field edit on a template tree
type ActionType string

const (
	ActionSetType                  ActionType = "set_type"
	ActionAddSection               ActionType = "add_section"
	ActionRemoveSection            ActionType = "remove_section"
	ActionAddQuestion              ActionType = "add_question"
	ActionRemoveQuestion           ActionType = "remove_question"
	ActionSetName                  ActionType = "set_name"
	ActionSetDescription           ActionType = "set_description"
	ActionSetBattalionCount        ActionType = "set_battalion_count"
	ActionSetTeacherEvaluatorCount ActionType = "set_teacher_evaluator_count"
	ActionSetSectionTitle          ActionType = "set_section_title"
	ActionSetSectionScore          ActionType = "set_section_score"
	ActionSetQuestionPrompt        ActionType = "set_question_prompt"
	ActionSetQuestionMaxScore      ActionType = "set_question_max_score"
)

// Action is one edit dispatched to the builder.
// Section and Question are zero-based indexes; Value carries the new field value
// as decoded from JSON (string, number or null).
type Action struct {
	Type     ActionType  `json:"type"`
	Section  int         `json:"section,omitempty"`
	Question int         `json:"question,omitempty"`
	Value    interface{} `json:"value,omitempty"`
}

// Convenience constructors

func SetType(t string) Action {
	return Action{Type: ActionSetType, Value: t}
}

func AddSection() Action {
	return Action{Type: ActionAddSection}
}

func RemoveSection(i int) Action {
	return Action{Type: ActionRemoveSection, Section: i}
}

func AddQuestion(section int) Action {
	return Action{Type: ActionAddQuestion, Section: section}
}

func SetName(name string) Action {
	return Action{Type: ActionSetName, Value: name}
}

func SetDescription(d string) Action {
	return Action{Type: ActionSetDescription, Value: d}
}

func SetSectionTitle(i int, title string) Action {
	return Action{Type: ActionSetSectionTitle, Section: i, Value: title}
}

func RemoveQuestion(section, question int) Action {
	return Action{Type: ActionRemoveQuestion, Section: section, Question: question}
}

func SetQuestionPrompt(section, question int, prompt string) Action {
	return Action{Type: ActionSetQuestionPrompt, Section: section, Question: question, Value: prompt}
}

func SetQuestionMaxScore(section, question int, score interface{}) Action {
	return Action{Type: ActionSetQuestionMaxScore, Section: section, Question: question, Value: score}
}

func SetSectionScore(section int, score interface{}) Action {
	return Action{Type: ActionSetSectionScore, Section: section, Value: score}
}

func SetTeacherEvaluatorCount(n interface{}) Action {
	return Action{Type: ActionSetTeacherEvaluatorCount, Value: n}
}

func SetBattalionCount(n interface{}) Action {
	return Action{Type: ActionSetBattalionCount, Value: n}
}

// stringValue renders an action value as text
func stringValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// numberValue coerces an action value to a finite number.
// ok is false for null, blank, non-numeric and non-finite input.
func numberValue(v interface{}) (n float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// intValue coerces to an integer, truncating fractions; invalid input yields 0
func intValue(v interface{}) int {
	n, ok := numberValue(v)
	if !ok {
		return 0
	}
	return int(n)
}

// optionalIntValue is intValue for nullable counts; invalid input yields nil
func optionalIntValue(v interface{}) *int {
	n, ok := numberValue(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}
