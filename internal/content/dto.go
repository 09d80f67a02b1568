package content

import (
	"log/slog"
	"time"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
	"gopkg.in/yaml.v3"
)

var ErrInvalidContent = errors.NewSentinel("invalid content")

type caseFile struct {
	ID            string                `yaml:"id"`
	Title         string                `yaml:"title"`
	Synopsis      string                `yaml:"synopsis"`
	HypothesisCap int                   `yaml:"hypothesis_cap"`
	Scoring       scoringFile           `yaml:"scoring"`
	Trust         trustFile             `yaml:"trust"`
	Evidence      []evidenceFile        `yaml:"evidence"`
	Dialogues     []dialogueFile        `yaml:"dialogues"`
	Hypotheses    []hypothesisFile      `yaml:"hypotheses"`
	Insights      []insightFile         `yaml:"insights"`
	Phases        []phaseFile           `yaml:"phases"`
	Solution      solutionFile          `yaml:"solution"`
	Endings       map[string]endingFile `yaml:"endings"`
}

type scoringFile struct {
	EvidencePoints              int `yaml:"evidence_points"`
	ConclusionBonus             int `yaml:"conclusion_bonus"`
	WrongConclusionTrustPenalty int `yaml:"wrong_conclusion_trust_penalty"`
	MaxConclusionAttempts       int `yaml:"max_conclusion_attempts"`
}

type trustFile struct {
	Initial map[string]int `yaml:"initial"`
	Default string         `yaml:"default"`
	Medium  int            `yaml:"medium"`
	High    int            `yaml:"high"`
}

type evidenceFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Room        string `yaml:"room"`
	// Unlock is "always", "explicit" or "after_collected".
	Unlock      string           `yaml:"unlock"`
	Count       int              `yaml:"count"`
	Points      int              `yaml:"points"`
	Invoices    []invoiceFile    `yaml:"invoices"`
	Timeline    []timelineFile   `yaml:"timeline"`
	Allocations []allocationFile `yaml:"allocations"`
}

type invoiceFile struct {
	Number   string  `yaml:"number"`
	Supplier string  `yaml:"supplier"`
	Amount   float64 `yaml:"amount"`
	Receipt  bool    `yaml:"receipt"`
}

type timelineFile struct {
	Label string    `yaml:"label"`
	At    time.Time `yaml:"at"`
}

type allocationFile struct {
	Project string  `yaml:"project"`
	Amount  float64 `yaml:"amount"`
}

type dialogueFile struct {
	Speaker string     `yaml:"speaker"`
	Name    string     `yaml:"name"`
	Room    string     `yaml:"room"`
	Nodes   []nodeFile `yaml:"nodes"`
}

type nodeFile struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Trigger triggerFile  `yaml:"trigger"`
	Next    string       `yaml:"next"`
	Choices []choiceFile `yaml:"choices"`
}

type choiceFile struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Response string `yaml:"response"`
	FollowUp string `yaml:"follow_up"`
	// Result selects the consequence: unlock, clue, trust_up or trust_down.
	Result string `yaml:"result"`
	Unlock string `yaml:"unlock"`
	NoteID string `yaml:"note_id"`
	Note   string `yaml:"note"`
	Entity string `yaml:"entity"`
	Trust  int    `yaml:"trust"`
}

type hypothesisFile struct {
	ID       string      `yaml:"id"`
	Text     string      `yaml:"text"`
	Suspect  string      `yaml:"suspect"`
	Requires triggerFile `yaml:"requires"`
}

type insightFile struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Points      int           `yaml:"points"`
	Requires    []string      `yaml:"requires"`
	Analysis    *analysisFile `yaml:"analysis"`
}

type analysisFile struct {
	Kind                   string        `yaml:"kind"`
	MinTotal               float64       `yaml:"min_total"`
	MinMissingReceiptRatio float64       `yaml:"min_missing_receipt_ratio"`
	From                   string        `yaml:"from"`
	To                     string        `yaml:"to"`
	MaxGap                 time.Duration `yaml:"max_gap"`
	Project                string        `yaml:"project"`
	MinShare               float64       `yaml:"min_share"`
}

type phaseFile struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Rooms          []string `yaml:"rooms"`
	CallToAction   string   `yaml:"call_to_action"`
	SelectionOpen  bool     `yaml:"selection_open"`
	OffersSwap     bool     `yaml:"offers_swap"`
	SwapRequires   []string `yaml:"swap_requires"`
	ConclusionOpen bool     `yaml:"conclusion_open"`
	Exit           gateFile `yaml:"exit"`
}

type gateFile struct {
	MinViewed int      `yaml:"min_viewed"`
	Viewed    []string `yaml:"viewed"`
	Collected []string `yaml:"collected"`
	Insights  []string `yaml:"insights"`
}

type solutionFile struct {
	Hypothesis         string   `yaml:"hypothesis"`
	Cause              string   `yaml:"cause"`
	Project            string   `yaml:"project"`
	Person             string   `yaml:"person"`
	Diagnostics        []string `yaml:"diagnostics"`
	ExcellentThreshold int      `yaml:"excellent_threshold"`
}

type endingFile struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// triggerFile accepts either the compact string notation or a mapping with a single all, any or not key.
type triggerFile struct {
	trigger game.Trigger
}

func (t *triggerFile) UnmarshalYAML(value *yaml.Node) error {
	trigger, err := decodeTrigger(value)
	if err != nil {
		return err
	}
	t.trigger = trigger
	return nil
}

func decodeTrigger(value *yaml.Node) (game.Trigger, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		return game.ParseTrigger(value.Value)
	case yaml.MappingNode:
		if len(value.Content) != 2 { //nolint:mnd // a single key and its value.
			return game.Trigger{}, errors.Wrap(ErrInvalidContent, "composite trigger needs exactly one key",
				slog.Int("line", value.Line))
		}
		kind := game.TriggerKind(value.Content[0].Value)
		body := value.Content[1]
		var children []*yaml.Node
		switch {
		case kind == game.TriggerNot:
			children = []*yaml.Node{body}
		case (kind == game.TriggerAll || kind == game.TriggerAny) && body.Kind == yaml.SequenceNode:
			children = body.Content
		default:
			return game.Trigger{}, errors.Wrap(ErrInvalidContent, "unknown composite trigger",
				slog.String("kind", string(kind)), slog.Int("line", value.Line))
		}
		t := game.Trigger{Kind: kind}
		for _, c := range children {
			child, err := decodeTrigger(c)
			if err != nil {
				return game.Trigger{}, err
			}
			t.Children = append(t.Children, child)
		}
		return t, nil
	case yaml.DocumentNode, yaml.SequenceNode, yaml.AliasNode:
	}
	return game.Trigger{}, errors.Wrap(ErrInvalidContent, "trigger must be a string or a mapping",
		slog.Int("line", value.Line))
}

func (f *caseFile) catalog() (*game.Catalog, error) {
	c := &game.Catalog{
		Case:          game.CaseInfo{ID: f.ID, Title: f.Title, Synopsis: f.Synopsis},
		HypothesisCap: f.HypothesisCap,
		Scoring:       game.Scoring(f.Scoring),
		Trust: game.TrustConfig{
			Initial: f.Trust.Initial,
			Default: f.Trust.Default,
			Medium:  f.Trust.Medium,
			High:    f.Trust.High,
		},
		Solution: game.Solution(f.Solution),
		Endings:  make(map[game.EndingKind]game.EndingText, len(f.Endings)),
	}
	for kind, e := range f.Endings {
		c.Endings[game.EndingKind(kind)] = game.EndingText(e)
	}
	for _, e := range f.Evidence {
		ev := game.Evidence{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Room:        e.Room,
			Unlock:      game.UnlockRule{Kind: game.UnlockKind(e.Unlock), Count: e.Count},
			Points:      e.Points,
		}
		for _, inv := range e.Invoices {
			ev.Data.Invoices = append(ev.Data.Invoices, game.Invoice{
				Number: inv.Number, Supplier: inv.Supplier, Amount: inv.Amount, HasReceipt: inv.Receipt,
			})
		}
		for _, t := range e.Timeline {
			ev.Data.Timeline = append(ev.Data.Timeline, game.TimelineEvent(t))
		}
		for _, a := range e.Allocations {
			ev.Data.Allocations = append(ev.Data.Allocations, game.Allocation(a))
		}
		c.Evidence = append(c.Evidence, ev)
	}
	for _, d := range f.Dialogues {
		dialogue := game.Dialogue{Speaker: d.Speaker, Name: d.Name, Room: d.Room}
		for _, n := range d.Nodes {
			node := game.Node{ID: n.ID, Text: n.Text, Trigger: n.Trigger.trigger, Next: n.Next}
			for _, ch := range n.Choices {
				consequence, err := ch.consequence()
				if err != nil {
					return nil, errors.Wrap(err, "decode choice", slog.String("node_id", n.ID),
						slog.String("choice_id", ch.ID))
				}
				node.Choices = append(node.Choices, game.Choice{
					ID:          ch.ID,
					Label:       ch.Label,
					Response:    ch.Response,
					FollowUp:    ch.FollowUp,
					Consequence: consequence,
				})
			}
			dialogue.Nodes = append(dialogue.Nodes, node)
		}
		c.Dialogues = append(c.Dialogues, dialogue)
	}
	for _, h := range f.Hypotheses {
		c.Hypotheses = append(c.Hypotheses, game.Hypothesis{
			ID: h.ID, Text: h.Text, Suspect: h.Suspect, Requires: h.Requires.trigger,
		})
	}
	for _, in := range f.Insights {
		insight := game.Insight{
			ID: in.ID, Name: in.Name, Description: in.Description, Points: in.Points, Requires: in.Requires,
		}
		if in.Analysis != nil {
			analysis, err := in.Analysis.analysis()
			if err != nil {
				return nil, errors.Wrap(err, "decode analysis", slog.String("insight_id", in.ID))
			}
			insight.Analysis = analysis
		}
		c.Insights = append(c.Insights, insight)
	}
	for _, p := range f.Phases {
		c.Phases = append(c.Phases, game.Phase{
			ID:             p.ID,
			Name:           p.Name,
			Rooms:          p.Rooms,
			CallToAction:   p.CallToAction,
			SelectionOpen:  p.SelectionOpen,
			OffersSwap:     p.OffersSwap,
			SwapRequires:   p.SwapRequires,
			ConclusionOpen: p.ConclusionOpen,
			Exit:           game.PhaseGate(p.Exit),
		})
	}
	return c, nil
}

// consequence maps the result tag onto the consequence variant.
func (ch choiceFile) consequence() (game.Consequence, error) {
	switch game.ResultTag(ch.Result) {
	case "":
		return nil, nil //nolint:nilnil // a choice may have no effect beyond its response.
	case game.ResultUnlock:
		if ch.Unlock == "" {
			return nil, errors.Wrap(ErrInvalidContent, "unlock result without evidence id")
		}
		return game.UnlockEvidence{EvidenceID: ch.Unlock}, nil
	case game.ResultClue:
		if ch.Note == "" {
			return nil, errors.Wrap(ErrInvalidContent, "clue result without note")
		}
		return game.AppendNote{NoteID: ch.NoteID, Text: ch.Note}, nil
	case game.ResultTrustUp:
		return game.AdjustTrust{Entity: ch.Entity, Delta: abs(ch.Trust)}, nil
	case game.ResultTrustDown:
		return game.AdjustTrust{Entity: ch.Entity, Delta: -abs(ch.Trust)}, nil
	}
	return nil, errors.Wrap(ErrInvalidContent, "unknown result", slog.String("result", ch.Result))
}

func (a analysisFile) analysis() (game.Analysis, error) {
	switch game.AnalysisKind(a.Kind) {
	case game.AnalysisSupplierAnomaly:
		return game.SupplierAnomaly{MinTotal: a.MinTotal, MinMissingReceiptRatio: a.MinMissingReceiptRatio}, nil
	case game.AnalysisTimingGap:
		return game.TimingGap{From: a.From, To: a.To, MaxGap: a.MaxGap}, nil
	case game.AnalysisShareThreshold:
		return game.ShareThreshold{Project: a.Project, MinShare: a.MinShare}, nil
	}
	return nil, errors.Wrap(ErrInvalidContent, "unknown analysis kind", slog.String("kind", a.Kind))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type briefFile struct {
	ID               string        `yaml:"id"`
	Title            string        `yaml:"title"`
	Start            string        `yaml:"start"`
	Budget           int           `yaml:"budget"`
	BacktrackPenalty int           `yaml:"backtrack_penalty"`
	Nodes            []briefNode   `yaml:"nodes"`
	Framings         []framingFile `yaml:"framings"`
}

type briefNode struct {
	ID      string      `yaml:"id"`
	Prompt  string      `yaml:"prompt"`
	Framing bool        `yaml:"framing"`
	Edges   []briefEdge `yaml:"edges"`
}

type briefEdge struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Response string   `yaml:"response"`
	Cost     int      `yaml:"cost"`
	Tag      string   `yaml:"tag"`
	Next     string   `yaml:"next"`
	Reveals  []string `yaml:"reveals"`
}

type framingFile struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Quality string `yaml:"quality"`
}

func (f *briefFile) graph() *framing.Graph {
	g := &framing.Graph{
		ID:               f.ID,
		Title:            f.Title,
		Start:            f.Start,
		Budget:           f.Budget,
		BacktrackPenalty: f.BacktrackPenalty,
	}
	for _, n := range f.Nodes {
		node := framing.Node{ID: n.ID, Prompt: n.Prompt, Framing: n.Framing}
		for _, e := range n.Edges {
			node.Edges = append(node.Edges, framing.Edge{
				ID:       e.ID,
				Label:    e.Label,
				Response: e.Response,
				TimeCost: e.Cost,
				Tag:      framing.Tag(e.Tag),
				Next:     e.Next,
				Reveals:  e.Reveals,
			})
		}
		g.Nodes = append(g.Nodes, node)
	}
	for _, fr := range f.Framings {
		g.Framings = append(g.Framings, framing.Framing{ID: fr.ID, Label: fr.Label, Quality: framing.Quality(fr.Quality)})
	}
	return g
}
