// Package framing implements the timed decision variant: the player spends a time budget walking a graph of
// questions, may step back once at a time for a penalty, and finally frames the problem.
package framing

import (
	"log/slog"

	"github.com/myrjola/casefile/internal/errors"
)

// Tag classifies a taken edge.
type Tag string

const (
	TagCorrect   Tag = "correct"
	TagLessWrong Tag = "less-wrong"
	TagWrong     Tag = "wrong"
	TagPremature Tag = "premature"
)

// Quality classifies a framing option.
type Quality string

const (
	QualityBest       Quality = "best"
	QualityAcceptable Quality = "acceptable"
	QualityMisframed  Quality = "misframed"
)

var ErrInvalidGraph = errors.NewSentinel("invalid framing graph")

// Graph is the static content of one timed scenario.
type Graph struct {
	ID               string
	Title            string
	Start            string
	Budget           int
	BacktrackPenalty int
	Nodes            []Node
	Framings         []Framing
}

// Node is a question. A framing node ends traversal: the player picks a framing there instead of an edge.
type Node struct {
	ID      string
	Prompt  string
	Framing bool
	Edges   []Edge
}

// Edge is one option on a node.
type Edge struct {
	ID       string
	Label    string
	Response string
	TimeCost int
	Tag      Tag
	Next     string
	// Reveals lists facts shown to the player when the edge is taken.
	Reveals []string
}

// Framing is a terminal classification the player can choose.
type Framing struct {
	ID      string
	Label   string
	Quality Quality
}

func (g *Graph) node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

func (g *Graph) framing(id string) (*Framing, bool) {
	for i := range g.Framings {
		if g.Framings[i].ID == id {
			return &g.Framings[i], true
		}
	}
	return nil, false
}

// Validate checks references and that the nodes form a DAG reachable from Start.
func (g *Graph) Validate() error {
	if g.Budget <= 0 {
		return errors.Wrap(ErrInvalidGraph, "budget must be positive", slog.String("graph", g.ID))
	}
	if g.BacktrackPenalty <= 0 {
		return errors.Wrap(ErrInvalidGraph, "backtrack penalty must be positive", slog.String("graph", g.ID))
	}
	if _, ok := g.node(g.Start); !ok {
		return errors.Wrap(ErrInvalidGraph, "unknown start node", slog.String("graph", g.ID),
			slog.String("node", g.Start))
	}
	seen := map[string]bool{}
	hasFraming := false
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return errors.Wrap(ErrInvalidGraph, "duplicate node", slog.String("node", n.ID))
		}
		seen[n.ID] = true
		hasFraming = hasFraming || n.Framing
		if n.Framing && len(n.Edges) > 0 {
			return errors.Wrap(ErrInvalidGraph, "framing node with edges", slog.String("node", n.ID))
		}
		if !n.Framing && len(n.Edges) == 0 {
			return errors.Wrap(ErrInvalidGraph, "dead end", slog.String("node", n.ID))
		}
		for _, e := range n.Edges {
			attrs := []slog.Attr{slog.String("node", n.ID), slog.String("edge", e.ID)}
			if _, ok := g.node(e.Next); !ok {
				return errors.Wrap(ErrInvalidGraph, "edge to unknown node", attrs...)
			}
			if e.TimeCost < 0 {
				return errors.Wrap(ErrInvalidGraph, "negative time cost", attrs...)
			}
			switch e.Tag {
			case TagCorrect, TagLessWrong, TagWrong, TagPremature:
			default:
				return errors.Wrap(ErrInvalidGraph, "unknown edge tag", append(attrs, slog.String("tag", string(e.Tag)))...)
			}
		}
	}
	if !hasFraming || len(g.Framings) == 0 {
		return errors.Wrap(ErrInvalidGraph, "no framing node or options", slog.String("graph", g.ID))
	}
	for _, f := range g.Framings {
		switch f.Quality {
		case QualityBest, QualityAcceptable, QualityMisframed:
		default:
			return errors.Wrap(ErrInvalidGraph, "unknown framing quality", slog.String("framing", f.ID))
		}
	}
	return g.checkAcyclic()
}

func (g *Graph) checkAcyclic() error {
	const (
		visiting = iota + 1
		done
	)
	marks := map[string]int{}
	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case visiting:
			return errors.Wrap(ErrInvalidGraph, "cycle", slog.String("node", id))
		case done:
			return nil
		}
		marks[id] = visiting
		n, _ := g.node(id)
		for _, e := range n.Edges {
			if err := visit(e.Next); err != nil {
				return err
			}
		}
		marks[id] = done
		return nil
	}
	return visit(g.Start)
}
