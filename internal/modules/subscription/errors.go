package subscription

import "fmt"

// Reason is a stable machine-readable code for a rejected request.
type Reason string

const (
	ReasonAlreadySubscribed Reason = "already_subscribed"
	ReasonCannotConfirm     Reason = "cannot_confirm"
	ReasonCannotUnsubscribe Reason = "cannot_unsubscribe"
	ReasonMissingEmail      Reason = "missing_email"
)

// Rejection is a deliberate refusal of a request. Rejections are decided
// before any write happens and carry no internal detail; handlers map the
// reason to a configured user-facing message.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected: %s", r.Reason)
}

func reject(reason Reason) error {
	return &Rejection{Reason: reason}
}

// TechnicalError wraps an infrastructure failure (database, mail delivery).
// The wrapped cause is for logs only; users get a generic message.
type TechnicalError struct {
	Op    string
	Email string
	Err   error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Email, e.Err)
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func technical(op, email string, err error) error {
	return &TechnicalError{Op: op, Email: email, Err: err}
}
