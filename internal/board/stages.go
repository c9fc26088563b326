package board

import (
	"errors"
	"strings"

	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

var ErrEmptyStageName = errors.New("stage name is required")

// DefaultStageColor is preselected for a new stage.
const DefaultStageColor = "#6366F1"

// PresetColors are offered by the stage color picker.
var PresetColors = []string{
	"#F59E0B",
	"#3B82F6",
	"#10B981",
	"#8B5CF6",
	"#06B6D4",
	"#EC4899",
	"#6366F1",
}

// DefaultStages seeds the editor for a new funnel.
func DefaultStages() []models.Stage {
	return []models.Stage{
		{Name: "Lead", Color: "#F59E0B"},
		{Name: "Negociação", Color: "#8B5CF6"},
		{Name: "Fechado", Color: "#10B981"},
	}
}

// StageEditor is the ordered stage list of a funnel being created or
// edited. Stages added here have no id until the funnel is saved.
type StageEditor struct {
	stages  []models.Stage
	dragged int
}

// NewStageEditor starts from stages, or from DefaultStages when nil.
func NewStageEditor(stages []models.Stage) *StageEditor {
	if stages == nil {
		stages = DefaultStages()
	}
	return &StageEditor{stages: append([]models.Stage(nil), stages...), dragged: -1}
}

func (e *StageEditor) Stages() []models.Stage {
	return append([]models.Stage(nil), e.stages...)
}

func (e *StageEditor) Len() int { return len(e.stages) }

// Add appends a stage. Names that are empty once trimmed are rejected.
func (e *StageEditor) Add(name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyStageName
	}
	if color == "" {
		color = DefaultStageColor
	}
	e.stages = append(e.stages, models.Stage{Name: name, Color: color})
	return nil
}

// Remove deletes the stage at index. Out of range indexes are ignored.
func (e *StageEditor) Remove(index int) {
	if index < 0 || index >= len(e.stages) {
		return
	}
	e.stages = append(e.stages[:index], e.stages[index+1:]...)
	switch {
	case e.dragged == index:
		e.dragged = -1
	case index < e.dragged:
		e.dragged--
	}
}

// Move takes the stage at from out of the list and reinserts it at to.
func (e *StageEditor) Move(from, to int) {
	n := len(e.stages)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return
	}
	st := e.stages[from]
	e.stages = append(e.stages[:from], e.stages[from+1:]...)
	e.stages = append(e.stages[:to], append([]models.Stage{st}, e.stages[to:]...)...)

	// a drag in progress follows its stage
	switch {
	case e.dragged == from:
		e.dragged = to
	case from < e.dragged && e.dragged <= to:
		e.dragged--
	case to <= e.dragged && e.dragged < from:
		e.dragged++
	}
}

// BeginDrag marks the stage at index as being reordered.
func (e *StageEditor) BeginDrag(index int) {
	if index < 0 || index >= len(e.stages) {
		return
	}
	e.dragged = index
}

func (e *StageEditor) DraggedIndex() int { return e.dragged }

// DropAt finishes a reorder drag at target.
func (e *StageEditor) DropAt(target int) {
	from := e.dragged
	e.dragged = -1
	if from < 0 {
		return
	}
	e.Move(from, target)
}

// Input builds the funnel submission and validates it.
func (e *StageEditor) Input(name string) (crmsync.FunnelInput, error) {
	in := crmsync.FunnelInput{Name: strings.TrimSpace(name), Stages: e.Stages()}
	return in, in.Validate()
}
