// Package commands carries operator commands from a chat-transport
// binding to the ingestion state machine.
package commands

// Kind identifies an operator command.
type Kind string

// Operator command kinds. These mirror the events a chat binding
// produces: begin a batch, send an item, finish collecting, pick a
// category, submit keywords, or cancel.
const (
	KindBeginUpload       Kind = "begin_upload"
	KindMediaItemReceived Kind = "media_item_received"
	KindDoneCollecting    Kind = "done_collecting"
	KindCategorySelected  Kind = "category_selected"
	KindKeywordsSubmitted Kind = "keywords_submitted"
	KindCancel            Kind = "cancel"
)

// Command is one operator event. Operator carries the sender identity;
// the gate decides whether it may act.
type Command struct {
	Kind     Kind
	Operator string
	Data     []byte
	Category string
	Keywords string
}
