package billing

import "errors"

// Step identifies one screen of the invoice wizard.
type Step string

const (
	StepCustomer Step = "customer"
	StepServices Step = "services"
	StepProducts Step = "products"
	StepStaff    Step = "staff"
	StepPayment  Step = "payment"
	StepSummary  Step = "summary"
)

// ErrAtLastStep is returned when Next is called on the summary step.
var ErrAtLastStep = errors.New("billing: already at the last step")

var stepOrder = []Step{StepCustomer, StepServices, StepProducts, StepStaff, StepPayment, StepSummary}

// validators guard the transition out of each step. The summary step's
// validator is the full submission gate.
var validators = map[Step]func(*InvoiceDraft) error{
	StepCustomer: (*InvoiceDraft).validateCustomer,
	StepServices: (*InvoiceDraft).validateServices,
	StepProducts: func(*InvoiceDraft) error { return nil },
	StepStaff:    (*InvoiceDraft).validateStaff,
	StepPayment:  (*InvoiceDraft).validatePayment,
	StepSummary:  (*InvoiceDraft).Validate,
}

// StepOrder returns the wizard's step sequence.
func StepOrder() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// Wizard walks a draft through the fixed step sequence. It carries no
// rendering concerns: transitions succeed or fail purely on the draft's
// state, which keeps the flow testable on its own.
type Wizard struct {
	Draft *InvoiceDraft
	idx   int
}

// NewWizard starts a wizard at the customer step.
func NewWizard(draft *InvoiceDraft) *Wizard {
	if draft == nil {
		draft = NewDraft()
	}
	return &Wizard{Draft: draft}
}

// Step reports the current step.
func (w *Wizard) Step() Step {
	return stepOrder[w.idx]
}

// Next validates the current step and advances. The draft is left
// untouched on validation failure.
func (w *Wizard) Next() error {
	if err := validators[w.Step()](w.Draft); err != nil {
		return err
	}
	if w.idx == len(stepOrder)-1 {
		return ErrAtLastStep
	}
	w.idx++
	return nil
}

// Prev steps back without validation; reviewing earlier input is always allowed.
func (w *Wizard) Prev() {
	if w.idx > 0 {
		w.idx--
	}
}

// CanSubmit reports whether the draft passes every validator.
func (w *Wizard) CanSubmit() bool {
	return w.Draft.Validate() == nil
}
