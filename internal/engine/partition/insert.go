package partition

import (
	"slices"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// InsertOption configures an insertion.
type InsertOption func(*insertConfig)

type insertConfig struct {
	state   token.State
	mode    token.Mode
	history []token.HistoryRecord
}

// WithState sets the state of the created block. Defaults to Candidate.
func WithState(s token.State) InsertOption {
	return func(c *insertConfig) {
		if s != "" {
			c.state = s
		}
	}
}

// WithMode sets the overlap policy. Defaults to token.ModeAnnotate.
func WithMode(m token.Mode) InsertOption {
	return func(c *insertConfig) {
		c.mode = m
	}
}

// WithHistory sets the history carried by the created block.
func WithHistory(h []token.HistoryRecord) InsertOption {
	return func(c *insertConfig) {
		c.history = h
	}
}

// Result describes what an insertion changed. All blocks are copies.
type Result struct {
	// Mode is the overlap policy the insertion ran with.
	Mode token.Mode

	// Created is the new block, or nil when the selection held no token.
	Created *token.Block

	// Displaced holds the overlapped blocks as they were before the insertion.
	Displaced []*token.Block

	// Demoted holds the Rejected copies added to the overlay (review mode).
	Demoted []*token.Block
}

// Changed returns true if the insertion modified the partition.
func (r Result) Changed() bool {
	return r.Created != nil || len(r.Displaced) > 0
}

// Insert labels the selection [start, end) with class.
//
// The endpoints may be given in either order. An item overlaps the
// selection when item.End >= start and item.Start < end. Overlapping
// tokens are merged into one new block; overlapping blocks are dissolved
// and, in review mode, kept as Rejected copies in the overlay. A selection
// that holds no token creates nothing.
func (p *Partition) Insert(start, end int, class *token.LabelClass, opts ...InsertOption) Result {
	cfg := insertConfig{
		state: token.StateCandidate,
		mode:  token.ModeAnnotate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sw := &sweep{
		sel:   token.NewSpan(start, end),
		class: class,
		cfg:   cfg,
		out:   make([]token.Item, 0, len(p.items)),
	}
	for _, it := range p.items {
		sw.visit(it)
	}
	sw.flush()

	slices.SortStableFunc(sw.out, byStart)
	p.items = sw.out
	for _, b := range sw.demoted {
		p.addRejected(b)
	}

	res := Result{
		Mode:      cfg.mode,
		Created:   sw.created.Clone(),
		Displaced: sw.displaced,
	}
	for _, b := range sw.demoted {
		res.Demoted = append(res.Demoted, b.Clone())
	}
	return res
}

// InsertBlock replays a whole block: its range, class, state and history go
// through Insert, and the created block then takes over the review flag and
// previous state of b. The range is b.Start through b.End inclusive.
func (p *Partition) InsertBlock(b *token.Block, mode token.Mode) Result {
	res := p.Insert(b.Start, b.End+1, b.Class,
		WithState(b.CurrentState),
		WithMode(mode),
		WithHistory(b.History),
	)
	if res.Created == nil {
		return res
	}
	for _, it := range p.items {
		if nb, ok := it.(*token.Block); ok && nb.Start == res.Created.Start {
			nb.Reviewed = b.Reviewed
			nb.PreviousState = b.PreviousState
			res.Created = nb.Clone()
			break
		}
	}
	return res
}

// sweep is the single left-to-right pass of an insertion.
type sweep struct {
	sel   token.Span
	class *token.LabelClass
	cfg   insertConfig

	out       []token.Item
	pending   []token.Token
	created   *token.Block
	displaced []*token.Block
	demoted   []*token.Block
}

func (s *sweep) after(sp token.Span) bool {
	return sp.Start >= s.sel.End && len(s.pending) > 0
}

func (s *sweep) overlaps(sp token.Span) bool {
	return sp.End >= s.sel.Start && sp.Start < s.sel.End
}

func (s *sweep) visit(it token.Item) {
	sp := it.Span()
	switch v := it.(type) {
	case token.Token:
		switch {
		case s.after(sp):
			s.flush()
			s.out = append(s.out, v)
		case s.overlaps(sp):
			s.pending = append(s.pending, v)
		default:
			s.out = append(s.out, v)
		}
	case *token.Block:
		switch {
		case s.after(sp):
			s.flush()
			s.out = append(s.out, v)
		case s.overlaps(sp):
			s.displace(v)
		default:
			s.out = append(s.out, v)
		}
	default:
		panic("partition: unknown item type")
	}
}

// displace dissolves an overlapped block into its tokens and, in review
// mode, keeps a demoted copy.
func (s *sweep) displace(b *token.Block) {
	s.displaced = append(s.displaced, b.Clone())
	if s.cfg.mode == token.ModeReview {
		d := b.Clone()
		d.PreviousState = d.CurrentState
		d.CurrentState = token.StateRejected
		s.demoted = append(s.demoted, d)
	}
	for _, t := range b.Tokens {
		s.visit(t)
	}
}

func (s *sweep) flush() {
	if len(s.pending) == 0 {
		return
	}
	b := token.NewBlock(s.pending, s.class, s.cfg.state, s.cfg.history)
	s.out = append(s.out, b)
	s.created = b
	s.pending = nil
}
