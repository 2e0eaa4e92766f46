package domain

import (
	"fmt"
	"strings"
)

// RequestStatus is the lifecycle status of a request.
type RequestStatus int

const (
	RequestStatusPending RequestStatus = iota
	RequestStatusExecuting
	RequestStatusCompleted
	RequestStatusFailed
	RequestStatusExpired
)

var requestStatusNames = []string{"pending", "executing", "completed", "failed", "expired"}

func (s RequestStatus) String() string {
	if s < 0 || int(s) >= len(requestStatusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return requestStatusNames[s]
}

// ParseRequestStatus ...
func ParseRequestStatus(text string) (RequestStatus, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	for i, name := range requestStatusNames {
		if name == text {
			return RequestStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown request status %q", text)
}

// IsTerminal returns whether no transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusFailed || s == RequestStatusExpired
}

// MarshalText implements encoding.TextMarshaler.
func (s RequestStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RequestStatus) UnmarshalText(text []byte) error {
	status, err := ParseRequestStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Request is a privileged operation waiting for, or done with, execution.
// Timestamps are unix seconds, a zero Deadline means no deadline.
type Request struct {
	ID         uint64           `json:"id"`
	Role       Role             `json:"role"`
	Operation  Operation        `json:"operation"`
	Submitter  string           `json:"submitter,omitempty"`
	CreatedAt  int64            `json:"created_at"`
	Deadline   int64            `json:"deadline,omitempty"`
	Status     RequestStatus    `json:"status"`
	Result     *ExecutionResult `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	Executor   string           `json:"executor,omitempty"`
	ExecutedAt int64            `json:"executed_at,omitempty"`
}

// NewRequest returns a pending request for op. The required role is raised
// to the minimum role of the operation. The ID is assigned by the
// repository.
func NewRequest(
	op Operation, role Role, submitter string, now, deadline int64,
) (*Request, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if role != RoleNone && !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if min := op.MinimumRole(); role < min {
		role = min
	}
	if deadline != 0 && deadline <= now {
		return nil, ErrInvalidDeadline
	}

	return &Request{
		Role:      role,
		Operation: op,
		Submitter: submitter,
		CreatedAt: now,
		Deadline:  deadline,
		Status:    RequestStatusPending,
	}, nil
}

// IsExpired returns whether the deadline is set and passed at now.
func (r *Request) IsExpired(now int64) bool {
	return r.Deadline > 0 && now > r.Deadline
}

// IsPending ...
func (r *Request) IsPending() bool {
	return r.Status == RequestStatusPending
}

// StartExecution claims the request for execution by a caller with the
// given role. On expiration the request moves to Expired and
// ErrRequestExpired is returned.
func (r *Request) StartExecution(callerRole Role, executor string, now int64) error {
	if !callerRole.Satisfies(r.Role) {
		return ErrForbidden
	}
	switch r.Status {
	case RequestStatusCompleted, RequestStatusFailed:
		return ErrRequestAlreadyExecuted
	case RequestStatusExpired:
		return ErrRequestExpired
	case RequestStatusExecuting:
		return ErrRequestInProgress
	}
	if r.IsExpired(now) {
		r.Status = RequestStatusExpired
		return ErrRequestExpired
	}

	r.Status = RequestStatusExecuting
	r.Executor = executor
	return nil
}

// Complete ...
func (r *Request) Complete(result ExecutionResult, now int64) error {
	if r.Status != RequestStatusExecuting {
		return fmt.Errorf("cannot complete request in status %s", r.Status)
	}
	r.Status = RequestStatusCompleted
	r.Result = &result
	r.ExecutedAt = now
	return nil
}

// Fail ...
func (r *Request) Fail(reason error, now int64) error {
	if r.Status != RequestStatusExecuting {
		return fmt.Errorf("cannot fail request in status %s", r.Status)
	}
	r.Status = RequestStatusFailed
	if reason != nil {
		r.Error = reason.Error()
	}
	r.ExecutedAt = now
	return nil
}

// Interrupt fails a request left in Executing with ErrRequestInterrupted.
// Interrupted requests never go back to Pending. Returns false for requests
// in any other status.
func (r *Request) Interrupt(now int64) bool {
	if r.Status != RequestStatusExecuting {
		return false
	}
	r.Status = RequestStatusFailed
	r.Error = ErrRequestInterrupted.Error()
	r.ExecutedAt = now
	return true
}

// Clone returns a copy of the request. The operation payload is shared,
// it is never mutated once the request is created.
func (r *Request) Clone() *Request {
	clone := *r
	if r.Result != nil {
		result := *r.Result
		clone.Result = &result
	}
	return &clone
}
