package llm

import (
	"errors"
	"fmt"

	"sentiment-trader/internal/api"
)

// ErrInterpretationUnavailable marks a bar for which no interpretation could be obtained.
// Callers treat it as HOLD and move on to the next bar.
var ErrInterpretationUnavailable = errors.New("interpretation unavailable")

// ServiceError is a non-2xx response or transport failure from a language model provider.
// It matches ErrInterpretationUnavailable under errors.Is.
type ServiceError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: service returned HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: service call failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool {
	return target == ErrInterpretationUnavailable
}

// NewServiceError classifies an error returned by api.Client.
func NewServiceError(provider string, err error) *ServiceError {
	se := &ServiceError{Provider: provider, Err: err}
	var status *api.StatusError
	if errors.As(err, &status) {
		se.StatusCode = status.StatusCode
		se.Body = string(status.Body)
	}
	return se
}

// Unavailable wraps ErrInterpretationUnavailable with the provider and reason.
func Unavailable(provider, reason string) error {
	return fmt.Errorf("%s: %s: %w", provider, reason, ErrInterpretationUnavailable)
}

// Message is one chat turn in a provider request body.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessages wraps prompt as the single user turn of a conversation.
func UserMessages(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}
