package interact

// EventKind discriminates inbound interaction events.
type EventKind string

const (
	KindButtonClicked EventKind = "button_clicked"
	KindFormSubmitted EventKind = "form_submitted"
)

// Event is an inbound interaction event, already authenticated by the
// receiver layer. The sum is closed: ButtonClicked and FormSubmitted.
type Event interface {
	Kind() EventKind
	Recipient() string
}

// ButtonClicked is a click on the prompt's call-to-action button.
type ButtonClicked struct {
	RecipientID string
	ActionID    string

	// TriggerID is the platform's short-lived token permitting a follow-up
	// form to be opened in response to this click.
	TriggerID string
}

func (e ButtonClicked) Kind() EventKind   { return KindButtonClicked }
func (e ButtonClicked) Recipient() string { return e.RecipientID }

// FormSubmitted is a completed follow-up form.
type FormSubmitted struct {
	RecipientID string
	Values      map[string]string
}

func (e FormSubmitted) Kind() EventKind   { return KindFormSubmitted }
func (e FormSubmitted) Recipient() string { return e.RecipientID }
