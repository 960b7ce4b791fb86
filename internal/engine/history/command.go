package history

import (
	"errors"
	"fmt"

	"github.com/theSKAILab/TART/internal/engine/partition"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// ErrNoChange indicates a command left the partition untouched. Such
// commands are not recorded.
var ErrNoChange = errors.New("edit changed nothing")

// Command represents a composable edit action that can be executed and undone.
type Command interface {
	// Execute performs the command and returns an error if it fails.
	Execute(p *partition.Partition) error

	// Undo reverses the command and returns an error if it fails.
	Undo(p *partition.Partition) error

	// Description returns a human-readable description of the command.
	Description() string
}

// Reversible is implemented by commands that expose their inverse
// descriptor after execution.
type Reversible interface {
	Inverse() Inverse
}

// LabelCommand labels a selection.
type LabelCommand struct {
	Start   int
	End     int
	Class   *token.LabelClass
	State   token.State
	Mode    token.Mode
	History []token.HistoryRecord

	result  partition.Result
	inverse Inverse
}

// NewLabelCommand creates a command labeling [start, end) with class in
// annotate mode.
func NewLabelCommand(start, end int, class *token.LabelClass) *LabelCommand {
	return &LabelCommand{
		Start: start,
		End:   end,
		Class: class,
		State: token.StateCandidate,
		Mode:  token.ModeAnnotate,
	}
}

// Execute inserts the selection.
func (c *LabelCommand) Execute(p *partition.Partition) error {
	res := p.Insert(c.Start, c.End, c.Class,
		partition.WithState(c.State),
		partition.WithMode(c.Mode),
		partition.WithHistory(c.History),
	)
	if !res.Changed() {
		return ErrNoChange
	}
	c.result = res
	c.inverse = ForInsert(res)
	return nil
}

// Undo removes the created block and restores whatever it displaced.
func (c *LabelCommand) Undo(p *partition.Partition) error {
	if err := Apply(p, c.inverse); err != nil {
		return fmt.Errorf("undo label: %w", err)
	}
	return nil
}

// Result returns what the last execution changed.
func (c *LabelCommand) Result() partition.Result {
	return c.result
}

// Inverse returns the descriptor reversing the last execution.
func (c *LabelCommand) Inverse() Inverse {
	return c.inverse
}

// Description returns a human-readable description.
func (c *LabelCommand) Description() string {
	name := token.ClassName(c.Class)
	if c.Mode == token.ModeReview {
		return fmt.Sprintf("Review %s [%d:%d)", name, c.Start, c.End)
	}
	return fmt.Sprintf("Label %s [%d:%d)", name, c.Start, c.End)
}

// UnlabelCommand removes the block starting at Start, tiled blocks first,
// then rejected ones. Tokens of a tiled block return to the sentence.
type UnlabelCommand struct {
	Start int

	removed *token.Block
	inverse Inverse
}

// NewUnlabelCommand creates a command removing the block at start.
func NewUnlabelCommand(start int) *UnlabelCommand {
	return &UnlabelCommand{Start: start}
}

// Execute removes the block.
func (c *UnlabelCommand) Execute(p *partition.Partition) error {
	if b, ok := p.Remove(c.Start, true); ok {
		c.removed = b
		c.inverse = ForRemove(b, false)
		return nil
	}
	if b, ok := p.DropRejected(c.Start); ok {
		c.removed = b
		c.inverse = ForRemove(b, true)
		return nil
	}
	return ErrNoChange
}

// Undo re-inserts the removed block exactly.
func (c *UnlabelCommand) Undo(p *partition.Partition) error {
	if err := Apply(p, c.inverse); err != nil {
		return fmt.Errorf("undo unlabel: %w", err)
	}
	return nil
}

// Removed returns a copy of the block removed by the last execution.
func (c *UnlabelCommand) Removed() *token.Block {
	return c.removed.Clone()
}

// Inverse returns the descriptor reversing the last execution.
func (c *UnlabelCommand) Inverse() Inverse {
	return c.inverse
}

// Description returns a human-readable description.
func (c *UnlabelCommand) Description() string {
	if c.removed != nil {
		return fmt.Sprintf("Remove %s at %d", token.ClassName(c.removed.Class), c.Start)
	}
	return fmt.Sprintf("Remove block at %d", c.Start)
}

// UpdateCommand changes a block in place. Change receives a copy of the
// current block and may alter its class, states, review flag and history;
// the covered tokens must stay the same.
type UpdateCommand struct {
	Start  int
	Name   string
	Change func(b *token.Block)

	before  *token.Block
	after   *token.Block
	inverse Inverse
}

// NewUpdateCommand creates an update command.
func NewUpdateCommand(start int, name string, change func(b *token.Block)) *UpdateCommand {
	return &UpdateCommand{
		Start:  start,
		Name:   name,
		Change: change,
	}
}

// Execute applies the change. On redo the block computed by the first
// execution is reinstated as is.
func (c *UpdateCommand) Execute(p *partition.Partition) error {
	next := c.after
	if next == nil {
		cur, ok := p.BlockByStart(c.Start)
		if !ok {
			return fmt.Errorf("update block at %d: %w", c.Start, partition.ErrBlockNotFound)
		}
		next = cur.Clone()
		if c.Change != nil {
			c.Change(next)
		}
		if next.Equal(cur) {
			return ErrNoChange
		}
	}

	old, err := p.Replace(c.Start, next)
	if err != nil {
		return err
	}
	c.before = old
	c.after = next.Clone()
	c.inverse = ForUpdate(old)
	return nil
}

// Undo restores the block as it was before the change.
func (c *UpdateCommand) Undo(p *partition.Partition) error {
	if err := Apply(p, c.inverse); err != nil {
		return fmt.Errorf("undo %s: %w", c.Description(), err)
	}
	return nil
}

// Before returns a copy of the block before the last execution.
func (c *UpdateCommand) Before() *token.Block {
	return c.before.Clone()
}

// After returns a copy of the block after the last execution.
func (c *UpdateCommand) After() *token.Block {
	return c.after.Clone()
}

// Inverse returns the descriptor reversing the last execution.
func (c *UpdateCommand) Inverse() Inverse {
	return c.inverse
}

// Description returns a human-readable description.
func (c *UpdateCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Update block at %d", c.Start)
}

// CompoundCommand groups multiple commands as one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// NewCompoundCommand creates a new compound command.
func NewCompoundCommand(name string, commands ...Command) *CompoundCommand {
	return &CompoundCommand{
		Name:     name,
		Commands: commands,
	}
}

// Execute runs all commands in order. Commands that change nothing are
// dropped from the group.
func (c *CompoundCommand) Execute(p *partition.Partition) error {
	kept := c.Commands[:0]
	for i, cmd := range c.Commands {
		err := cmd.Execute(p)
		if errors.Is(err, ErrNoChange) {
			continue
		}
		if err != nil {
			// On error, try to undo what we've done
			for j := len(kept) - 1; j >= 0; j-- {
				_ = kept[j].Undo(p)
			}
			return fmt.Errorf("compound command '%s' step %d: %w", c.Name, i, err)
		}
		kept = append(kept, cmd)
	}
	c.Commands = kept
	if len(kept) == 0 {
		return ErrNoChange
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *CompoundCommand) Undo(p *partition.Partition) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(p); err != nil {
			return fmt.Errorf("undo compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound command's name.
func (c *CompoundCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d operations", len(c.Commands))
}

// Add adds a command to the compound command.
func (c *CompoundCommand) Add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

// IsEmpty returns true if the compound command has no commands.
func (c *CompoundCommand) IsEmpty() bool {
	return len(c.Commands) == 0
}
