// Package board holds the interaction state of the kanban board: which card
// is being dragged, when the viewport scrolls on its own, and the stage list
// being edited for a funnel. None of it renders anything.
package board

// DragSource identifies the card picked up by a drag.
type DragSource struct {
	DealID   string
	StageID  string
	FunnelID string
}

// Drag is a two-state machine: idle, or dragging one card.
type Drag struct {
	source *DragSource
}

// Start picks up a card. Starting while already dragging replaces the source.
func (d *Drag) Start(src DragSource) {
	d.source = &src
}

// Active reports the current source, if any.
func (d *Drag) Active() (DragSource, bool) {
	if d.source == nil {
		return DragSource{}, false
	}
	return *d.source, true
}

func (d *Drag) Dragging() bool { return d.source != nil }

// Drop ends the drag over targetStage. It returns the source and true when
// the card has to move; dropping while idle or onto the stage the card came
// from returns false. The machine is idle afterwards either way.
func (d *Drag) Drop(targetStage string) (DragSource, bool) {
	src, ok := d.Active()
	d.source = nil
	if !ok || targetStage == "" || targetStage == src.StageID {
		return DragSource{}, false
	}
	return src, true
}

// Cancel abandons the drag.
func (d *Drag) Cancel() {
	d.source = nil
}
