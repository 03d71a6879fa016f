package httpserver

import (
	"github.com/slack-go/slack"

	"github.com/bft-labs/rollcall/internal/interact"
)

// decodeInteraction maps a platform interaction callback onto the core's
// event sum type. Unrecognized callback types decode to nothing.
func decodeInteraction(cb slack.InteractionCallback) []interact.Event {
	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		events := make([]interact.Event, 0, len(cb.ActionCallback.BlockActions))
		for _, action := range cb.ActionCallback.BlockActions {
			events = append(events, interact.ButtonClicked{
				RecipientID: cb.User.ID,
				ActionID:    action.ActionID,
				TriggerID:   cb.TriggerID,
			})
		}
		return events

	case slack.InteractionTypeViewSubmission:
		values := make(map[string]string)
		if cb.View.State == nil {
			return []interact.Event{interact.FormSubmitted{RecipientID: cb.User.ID, Values: values}}
		}
		for _, block := range cb.View.State.Values {
			for actionID, state := range block {
				values[actionID] = state.Value
			}
		}
		return []interact.Event{interact.FormSubmitted{
			RecipientID: cb.User.ID,
			Values:      values,
		}}
	}
	return nil
}
