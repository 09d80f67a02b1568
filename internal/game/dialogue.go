package game

import (
	"log/slog"
)

// ConversationStatus is the state of the dialogue state machine.
type ConversationStatus string

const (
	// ConversationIdle means no conversation has been opened yet.
	ConversationIdle ConversationStatus = "idle"
	// ConversationAwaitingChoice shows a node and waits for the player to pick a choice.
	ConversationAwaitingChoice ConversationStatus = "awaiting_choice"
	// ConversationAwaitingAck shows the response of a resolved choice until the player acknowledges it.
	ConversationAwaitingAck ConversationStatus = "awaiting_ack"
	// ConversationExhausted means the speaker has no further options right now.
	ConversationExhausted ConversationStatus = "exhausted"
	// ConversationClosed means the player left the conversation.
	ConversationClosed ConversationStatus = "closed"
)

// Conversation is the dialogue part of the state.
type Conversation struct {
	Speaker  string             `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	NodeID   string             `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	Status   ConversationStatus `json:"status" yaml:"status"`
	Response string             `json:"response,omitempty" yaml:"response,omitempty"`
	FollowUp string             `json:"follow_up,omitempty" yaml:"follow_up,omitempty"`
}

// AwaitingAcknowledgment is true while a response line is shown. Node-advancing intents are refused meanwhile.
func (c Conversation) AwaitingAcknowledgment() bool {
	return c.Status == ConversationAwaitingAck
}

func (c Conversation) open() bool {
	return c.Status == ConversationAwaitingChoice || c.Status == ConversationAwaitingAck ||
		c.Status == ConversationExhausted
}

// nodeAvailable reports whether a node can be answered: its trigger holds, it is not completed, and it offers
// at least one choice.
func nodeAvailable(s *State, speaker string, n *Node) bool {
	if s.CompletedNodes[n.ID] || len(n.Choices) == 0 {
		return false
	}
	return n.Trigger.holds(triggerEnv{state: s, speaker: speaker})
}

func availableNodes(d *Dialogue, s *State) []*Node {
	var nodes []*Node
	for i := range d.Nodes {
		if nodeAvailable(s, d.Speaker, &d.Nodes[i]) {
			nodes = append(nodes, &d.Nodes[i])
		}
	}
	return nodes
}

// openConversation starts talking to speaker and shows the first available node.
func (t *txn) openConversation(speaker string) bool {
	d, ok := t.idx.dialogues[speaker]
	if !ok {
		return t.reject("unknown speaker", slog.String("speaker", speaker))
	}
	if t.s.Conversation.AwaitingAcknowledgment() {
		return t.reject("awaiting acknowledgment", slog.String("speaker", speaker))
	}
	if t.s.Conversation.open() && t.s.Conversation.Speaker == speaker {
		return t.reject("conversation already open", slog.String("speaker", speaker))
	}
	if !t.roomReachable(d.Room) {
		return t.reject("room not reachable", slog.String("speaker", speaker), slog.String("room", d.Room))
	}
	t.s.Visits[speaker]++
	t.s.Conversation = Conversation{Speaker: speaker, Status: ConversationAwaitingChoice}
	t.showNext(d, "")
	return true
}

// selectChoice resolves one choice of an available node of the open conversation.
func (t *txn) selectChoice(nodeID, choiceID string) bool {
	conv := t.s.Conversation
	attrs := []slog.Attr{slog.String("node_id", nodeID), slog.String("choice_id", choiceID)}
	if conv.AwaitingAcknowledgment() {
		return t.reject("awaiting acknowledgment", attrs...)
	}
	if conv.Status != ConversationAwaitingChoice {
		return t.reject("no conversation awaiting a choice", attrs...)
	}
	node, ok := t.idx.nodes[nodeID]
	if !ok || t.idx.nodeOwner[nodeID] != conv.Speaker {
		return t.reject("node not in conversation", attrs...)
	}
	if t.s.CompletedNodes[nodeID] {
		return t.reject("node already completed", attrs...)
	}
	if !nodeAvailable(t.s, conv.Speaker, node) {
		return t.reject("node not available", attrs...)
	}
	var choice *Choice
	for i := range node.Choices {
		if node.Choices[i].ID == choiceID {
			choice = &node.Choices[i]
			break
		}
	}
	if choice == nil {
		return t.reject("unknown choice", attrs...)
	}

	t.s.CompletedNodes[nodeID] = true
	if choice.Consequence != nil {
		choice.Consequence.apply(t, conv.Speaker, nodeID)
	}
	t.s.Conversation = Conversation{
		Speaker:  conv.Speaker,
		NodeID:   nodeID,
		Status:   ConversationAwaitingAck,
		Response: choice.Response,
		FollowUp: choice.FollowUp,
	}
	return true
}

// acknowledge dismisses the shown response and moves to the next available node.
func (t *txn) acknowledge() bool {
	conv := t.s.Conversation
	if !conv.AwaitingAcknowledgment() {
		return t.reject("nothing to acknowledge")
	}
	d := t.idx.dialogues[conv.Speaker]
	var preferred string
	if n, ok := t.idx.nodes[conv.NodeID]; ok {
		preferred = n.Next
	}
	t.s.Conversation = Conversation{Speaker: conv.Speaker, Status: ConversationAwaitingChoice}
	t.showNext(d, preferred)
	return true
}

// closeConversation leaves the current conversation.
func (t *txn) closeConversation() bool {
	if !t.s.Conversation.open() {
		return t.reject("no open conversation")
	}
	t.s.Conversation = Conversation{Speaker: t.s.Conversation.Speaker, Status: ConversationClosed}
	return true
}

// showNext points the conversation at preferred when it is available, else at the first available node, else marks
// the conversation exhausted.
func (t *txn) showNext(d *Dialogue, preferred string) {
	if d == nil {
		t.s.Conversation.Status = ConversationExhausted
		return
	}
	if n, ok := t.idx.nodes[preferred]; ok && t.idx.nodeOwner[preferred] == d.Speaker &&
		nodeAvailable(t.s, d.Speaker, n) {
		t.s.Conversation.NodeID = n.ID
		t.s.Conversation.Status = ConversationAwaitingChoice
		return
	}
	nodes := availableNodes(d, t.s)
	if len(nodes) == 0 {
		t.s.Conversation.NodeID = ""
		t.s.Conversation.Status = ConversationExhausted
		return
	}
	t.s.Conversation.NodeID = nodes[0].ID
	t.s.Conversation.Status = ConversationAwaitingChoice
}

// AvailableNodes lists the ids of the nodes of speaker that can be answered right now.
func (e *Engine) AvailableNodes(speaker string) []string {
	d, ok := e.idx.dialogues[speaker]
	if !ok {
		return nil
	}
	nodes := availableNodes(d, &e.state)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
