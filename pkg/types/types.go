// Package types defines the shared wire types for UserDeck
package types

// CodeOK is the envelope code every successful response carries. Any other
// code signals an application-level failure, even when the transport status
// is 2xx.
const CodeOK = 0

// MsgOK is the default message of a successful envelope
const MsgOK = "ok"

// TimeLayout is the wire format of created/updated timestamps
const TimeLayout = "2006-01-02 15:04:05"

// RequestIDHeader carries the per-request correlation id. The backend echoes
// an inbound value and mints one otherwise.
const RequestIDHeader = "X-Request-ID"

// Envelope is the uniform response wrapper every backend endpoint emits:
// code 0 with the payload in data on success, a non-zero code with a human
// msg on failure.
type Envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// IsSuccess reports whether the envelope signals application-level success
func (e Envelope[T]) IsSuccess() bool {
	return e.Code == CodeOK
}

// OK wraps a payload in a successful envelope
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Code: CodeOK, Msg: MsgOK, Data: data}
}

// OKWithMsg wraps a payload in a successful envelope with a custom message
func OKWithMsg[T any](msg string, data T) Envelope[T] {
	return Envelope[T]{Code: CodeOK, Msg: msg, Data: data}
}

// Fail builds a failure envelope carrying the given code and message
func Fail(code int, msg string) Envelope[any] {
	return Envelope[any]{Code: code, Msg: msg}
}

// Page is an ordered slice of a result set.
// Invariants: len(Items) <= Size and Total >= len(Items).
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// CheckInvariants verifies the paging invariants hold
func (p Page[T]) CheckInvariants() bool {
	return len(p.Items) <= p.Size && p.Total >= int64(len(p.Items))
}

// User is the outward representation of a console user. The password hash
// never leaves the backend.
type User struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
	Status      bool   `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedTime string `json:"created_time"`
	UpdatedTime string `json:"updated_time"`
}

// UserInput carries the writable user fields for create and update calls
type UserInput struct {
	Name        string `json:"name" binding:"required,max=50"`
	Username    string `json:"username" binding:"required,max=50"`
	Password    string `json:"password,omitempty" binding:"max=255"`
	Status      *bool  `json:"status" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TokenGrant is the payload of a successful login response
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// DeleteResult acknowledges a completed delete
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}
