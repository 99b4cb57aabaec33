package chatsync

import (
	"github.com/google/uuid"

	"duoqueue-dating-app/internal/models"
)

// TimelineMessage is a chat message as seen by one participant's read model.
// Optimistic entries are locally staged sends that have not been confirmed
// durable yet.
type TimelineMessage struct {
	models.Message
	Optimistic bool `json:"optimistic,omitempty"`
}

// Reconcile folds one delivered message row into the current timeline and
// reports whether anything changed. It is a pure function of its inputs so
// the reconciliation rules are testable without any transport.
//
// Rules, in order:
//  1. An optimistic entry from the same sender with the same client id (or,
//     lacking ids, identical text) is replaced in place, keeping its list
//     position.
//  2. A row whose durable id is already present is dropped (at-least-once
//     delivery).
//  3. Otherwise the row is inserted at its created_at position, so arrival
//     skew on the realtime channel never shows messages out of order.
func Reconcile(entries []TimelineMessage, incoming models.Message) ([]TimelineMessage, bool) {
	for i, e := range entries {
		if !e.Optimistic || e.SenderID != incoming.SenderID {
			continue
		}
		if (incoming.ClientMsgID != "" && e.ClientMsgID == incoming.ClientMsgID) ||
			(incoming.ClientMsgID == "" && e.Content == incoming.Content) {
			entries[i] = TimelineMessage{Message: incoming}
			return entries, true
		}
	}

	for _, e := range entries {
		if !e.Optimistic && e.ID == incoming.ID {
			return entries, false
		}
	}

	pos := len(entries)
	for pos > 0 {
		prev := entries[pos-1]
		if prev.Optimistic || !prev.CreatedAt.After(incoming.CreatedAt) {
			break
		}
		pos--
	}
	entries = append(entries, TimelineMessage{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = TimelineMessage{Message: incoming}
	return entries, true
}

// Outbox manages optimistic sends for a single conversation on behalf of one
// sender: stage before the durable write, confirm from the realtime stream,
// fail back to a draft when the write never lands.
type Outbox struct {
	senderID uint
	entries  []TimelineMessage
}

func NewOutbox(senderID uint, history []models.Message) *Outbox {
	o := &Outbox{senderID: senderID}
	for _, m := range history {
		o.entries = append(o.entries, TimelineMessage{Message: m})
	}
	return o
}

// Stage appends a provisional message and returns it. The generated client
// id travels with the durable write so the confirmed row reconciles back to
// this exact entry.
func (o *Outbox) Stage(receiverID uint, content string) TimelineMessage {
	entry := TimelineMessage{
		Message: models.Message{
			SenderID:    o.senderID,
			ReceiverID:  receiverID,
			ClientMsgID: uuid.NewString(),
			Content:     content,
			MessageType: models.MessageTypeText,
		},
		Optimistic: true,
	}
	o.entries = append(o.entries, entry)
	return entry
}

// Apply reconciles a delivered row and reports whether the timeline changed.
func (o *Outbox) Apply(incoming models.Message) bool {
	entries, changed := Reconcile(o.entries, incoming)
	o.entries = entries
	return changed
}

// Fail removes the provisional entry and hands the text back so the caller
// can restore the compose box. The user must not lose their draft.
func (o *Outbox) Fail(clientMsgID string) (draft string, ok bool) {
	for i, e := range o.entries {
		if e.Optimistic && e.ClientMsgID == clientMsgID {
			draft = e.Content
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return draft, true
		}
	}
	return "", false
}

// Entries returns the current ordered read model.
func (o *Outbox) Entries() []TimelineMessage {
	return o.entries
}
