package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
)

// CellRef addresses a cell by position. Version ties it to the cell list it
// was taken from; any structural edit of that list makes it stale.
type CellRef struct {
	TopicID string
	SubID   string
	Pos     int
	Version int
}

// Notebook edits the ordered cells of one submodule.
type Notebook struct {
	c       *Controller
	topicID string
	subID   string
}

// Notebook returns the cell editor for a submodule.
func (c *Controller) Notebook(topicID, subID string) *Notebook {
	return &Notebook{c: c, topicID: topicID, subID: subID}
}

func (n *Notebook) key() string {
	return subKey(n.c.tree.PathID(), n.topicID, n.subID)
}

// Cells returns a copy of the current cell list.
func (n *Notebook) Cells() ([]content.Cell, error) {
	sub, err := n.c.lookupSubmodule(n.topicID, n.subID)
	if err != nil {
		return nil, err
	}
	return sub.Cells, nil
}

// Ref resolves the current position pos. Use -1 to address "append".
func (n *Notebook) Ref(pos int) CellRef {
	return CellRef{TopicID: n.topicID, SubID: n.subID, Pos: pos, Version: n.c.cellVersion(n.key())}
}

func (n *Notebook) check(ref CellRef) ([]content.Cell, error) {
	if ref.TopicID != n.topicID || ref.SubID != n.subID {
		return nil, fmt.Errorf("%w: reference belongs to another submodule", ErrStaleRef)
	}
	cells, err := n.Cells()
	if err != nil {
		return nil, err
	}
	if ref.Version != n.c.cellVersion(n.key()) {
		return nil, ErrStaleRef
	}
	return cells, nil
}

func (n *Notebook) entity() string {
	return n.c.topicEntity(n.topicID) + "/" + n.subID + "/cells"
}

func (n *Notebook) apiRef() api.SubmoduleRef {
	return api.SubmoduleRef{PathID: n.c.tree.PathID(), TopicID: n.topicID, SubID: n.subID}
}

// setCells installs cells for the submodule; structural reports whether
// positions moved.
func (n *Notebook) setCells(cells []content.Cell, structural bool) bool {
	sub, ok := n.c.tree.Submodule(n.topicID, n.subID)
	if !ok {
		return false
	}
	sub.Cells = cells
	if !n.c.tree.PatchSubmodule(n.topicID, sub) {
		return false
	}
	if structural {
		n.c.bumpCells(n.key())
		n.closeEditor()
	}
	return true
}

func (n *Notebook) closeEditor() {
	if ref, ok := n.c.editor.Active(); ok && ref.TopicID == n.topicID && ref.SubID == n.subID {
		n.c.editor.Close()
	}
}

// InsertAfter adds a cell after ref.Pos, or appends when ref.Pos is -1. A zero
// cell becomes the default markdown cell.
func (n *Notebook) InsertAfter(ref CellRef, cell content.Cell) (*Mutation, error) {
	cells, err := n.check(ref)
	if err != nil {
		return nil, err
	}
	if ref.Pos < -1 || ref.Pos >= len(cells) {
		return nil, &content.ValidationError{Field: "position", Reason: fmt.Sprintf("position %d out of range", ref.Pos)}
	}
	if cell.Type == "" && cell.Markdown == "" {
		cell = content.NewMarkdownCell()
	}
	if !cell.Mutable() {
		return nil, fmt.Errorf("%w: resource cells are generated, not authored", ErrNotPermitted)
	}
	at := len(cells)
	if ref.Pos >= 0 {
		at = ref.Pos + 1
	}
	prev := content.CloneCells(cells)
	next := make([]content.Cell, 0, len(cells)+1)
	next = append(next, cells[:at]...)
	next = append(next, cell)
	next = append(next, cells[at:]...)
	n.setCells(next, true)

	apiRef := n.apiRef()
	m := &Mutation{Kind: KindAddCell, Entity: n.entity(), Label: "Add cell", Phase: PhaseApplied, RevertTo: prev}
	m.send = func(ctx context.Context) (any, error) {
		return n.c.remote.AddCell(ctx, apiRef, cell, at)
	}
	m.commit = n.commitCells
	m.revert = func() { n.setCells(prev, true) }
	return n.c.issue(m), nil
}

// Edit replaces the text of a markdown cell.
func (n *Notebook) Edit(ref CellRef, text string) (*Mutation, error) {
	cells, err := n.check(ref)
	if err != nil {
		return nil, err
	}
	if ref.Pos < 0 || ref.Pos >= len(cells) {
		return nil, &content.ValidationError{Field: "position", Reason: fmt.Sprintf("position %d out of range", ref.Pos)}
	}
	if !cells[ref.Pos].Mutable() {
		return nil, fmt.Errorf("%w: resource cells cannot be edited", ErrNotPermitted)
	}
	prev := content.CloneCells(cells)
	cells[ref.Pos].Markdown = text
	n.setCells(cells, false)
	if n.c.editor.Editing(ref) {
		n.c.editor.Close()
	}

	apiRef := n.apiRef()
	pos := ref.Pos
	m := &Mutation{Kind: KindEditCell, Entity: n.entity(), Label: "Edit cell", Phase: PhaseApplied, RevertTo: prev}
	m.send = func(ctx context.Context) (any, error) {
		return n.c.remote.EditCell(ctx, apiRef, pos, text)
	}
	m.commit = n.commitCells
	m.revert = func() { n.setCells(prev, false) }
	return n.c.issue(m), nil
}

// Delete removes a markdown cell. Later cells shift down by one and every
// outstanding CellRef for this submodule becomes stale.
func (n *Notebook) Delete(ref CellRef) (*Mutation, error) {
	cells, err := n.check(ref)
	if err != nil {
		return nil, err
	}
	if ref.Pos < 0 || ref.Pos >= len(cells) {
		return nil, &content.ValidationError{Field: "position", Reason: fmt.Sprintf("position %d out of range", ref.Pos)}
	}
	if !cells[ref.Pos].Mutable() {
		return nil, fmt.Errorf("%w: resource cells cannot be deleted", ErrNotPermitted)
	}
	prev := content.CloneCells(cells)
	next := append(cells[:ref.Pos:ref.Pos], cells[ref.Pos+1:]...)
	n.setCells(next, true)

	apiRef := n.apiRef()
	pos := ref.Pos
	m := &Mutation{Kind: KindDeleteCell, Entity: n.entity(), Label: "Delete cell", Phase: PhaseApplied, RevertTo: prev}
	m.send = func(ctx context.Context) (any, error) {
		return n.c.remote.DeleteCell(ctx, apiRef, pos)
	}
	m.commit = n.commitCells
	m.revert = func() { n.setCells(prev, true) }
	return n.c.issue(m), nil
}

func (n *Notebook) commitCells(v any) bool {
	server := v.([]content.Cell)
	cur, err := n.Cells()
	if err != nil {
		return false
	}
	return n.setCells(server, len(server) != len(cur))
}

// BeginEdit puts the cell at ref into edit mode with its current text as the
// draft. Any other cell's uncommitted draft is discarded; discarded reports
// whether that happened.
func (n *Notebook) BeginEdit(ref CellRef) (discarded bool, err error) {
	cells, err := n.check(ref)
	if err != nil {
		return false, err
	}
	if ref.Pos < 0 || ref.Pos >= len(cells) {
		return false, &content.ValidationError{Field: "position", Reason: fmt.Sprintf("position %d out of range", ref.Pos)}
	}
	if !cells[ref.Pos].Mutable() {
		return false, fmt.Errorf("%w: resource cells cannot be edited", ErrNotPermitted)
	}
	_, had := n.c.editor.Open(ref, cells[ref.Pos].Markdown)
	return had, nil
}

// Editing reports whether the cell at pos is in edit mode.
func (n *Notebook) Editing(pos int) bool {
	return n.c.editor.Editing(n.Ref(pos))
}

// SetDraft updates the text of the cell in edit mode.
func (n *Notebook) SetDraft(text string) {
	n.c.editor.SetDraft(text)
}

// Draft returns the text of the cell in edit mode.
func (n *Notebook) Draft() string {
	return n.c.editor.Draft()
}

// CancelEdit leaves edit mode without saving.
func (n *Notebook) CancelEdit() {
	n.closeEditor()
}

// CommitEdit saves the draft of the cell in edit mode.
func (n *Notebook) CommitEdit() (*Mutation, error) {
	ref, ok := n.c.editor.Active()
	if !ok || ref.TopicID != n.topicID || ref.SubID != n.subID {
		return nil, fmt.Errorf("no cell is being edited")
	}
	return n.Edit(ref, n.c.editor.Draft())
}

func (c *Controller) cellVersion(key string) int {
	if v := c.cellVersions[key]; v > c.cellFloor {
		return v
	}
	return c.cellFloor
}

func (c *Controller) bumpCells(key string) {
	c.cellClock++
	c.cellVersions[key] = c.cellClock
}

// bumpAllCells invalidates every outstanding CellRef, after a full reload.
func (c *Controller) bumpAllCells() {
	c.cellClock++
	c.cellFloor = c.cellClock
}

func (c *Controller) bumpTopicCells(topicID string) {
	pathID := c.tree.PathID()
	for _, id := range c.tree.SubmoduleIDs(topicID) {
		c.bumpCells(subKey(pathID, topicID, id))
	}
	if ref, ok := c.editor.Active(); ok && ref.TopicID == topicID {
		c.editor.Close()
	}
}
