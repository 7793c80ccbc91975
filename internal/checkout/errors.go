package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrPayment           = errors.New("payment failed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrPaymentDeclined   = errors.New("card declined")
)

// ValidationError lists the required form fields that were left blank.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: please fill in all required fields: %s", e.Step, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PaymentError wraps a failed charge. The checkout stays on the payment step.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPayment, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func (e *PaymentError) Is(target error) bool {
	return target == ErrPayment
}
