package domain

// Prompt is the interactive message sent to each recipient. It carries one
// primary call-to-action; rendering is the messaging adapter's concern.
type Prompt struct {
	// Text is the message body shown above the button.
	Text string

	// ButtonLabel is the call-to-action label.
	ButtonLabel string

	// ActionID identifies the button in inbound interaction events.
	ActionID string
}

// FormField describes one input in the follow-up check-in form.
type FormField struct {
	ID          string
	Label       string
	Placeholder string
	Multiline   bool
}

// FormSpec describes the follow-up form opened by the prompt's button.
type FormSpec struct {
	// CallbackID ties a form submission event back to the check-in flow.
	CallbackID string

	Title       string
	SubmitLabel string
	Fields      []FormField
}
