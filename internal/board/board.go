package board

import "github.com/gabrielrodrigueslb/lintra/internal/crmsync"

// Mover applies a stage change locally and returns the remote write that
// confirms it. *crmsync.Service satisfies it.
type Mover interface {
	MoveDeal(id, stageID, funnelID string) (*crmsync.Op, error)
}

// Board wires the drag machine to auto-scroll and to the deal mover.
type Board struct {
	drag   Drag
	scroll *AutoScroller
	mover  Mover
}

func New(mover Mover, scroll *AutoScroller) *Board {
	return &Board{mover: mover, scroll: scroll}
}

// StartDrag picks up a card.
func (b *Board) StartDrag(src DragSource) {
	b.drag.Start(src)
}

func (b *Board) Dragging() (DragSource, bool) {
	return b.drag.Active()
}

// DragOver feeds the pointer position to auto-scroll while a card is held.
func (b *Board) DragOver(x int) {
	if !b.drag.Dragging() || b.scroll == nil {
		return
	}
	b.scroll.DragOver(x)
}

// Drop releases the card over targetStage. Auto-scroll stops unconditionally.
// A nil op with a nil error means the drop was a no-op. The local move has
// been applied when an op is returned; the caller runs op.Sync.
func (b *Board) Drop(targetStage string) (*crmsync.Op, error) {
	if b.scroll != nil {
		b.scroll.Stop()
	}
	src, ok := b.drag.Drop(targetStage)
	if !ok {
		return nil, nil
	}
	return b.mover.MoveDeal(src.DealID, targetStage, "")
}

// Cancel abandons the drag without moving anything.
func (b *Board) Cancel() {
	if b.scroll != nil {
		b.scroll.Stop()
	}
	b.drag.Cancel()
}
