/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package errors provides a small structured error type for raftd.

The replica has no externally-visible error surface of its own: protocol
rejections are carried as success=false/granted=false in the normal
response, and transport failures are silently dropped at the task
boundary. The only place an error needs a shape beyond the standard
library's is the startup path, where a bad CLI argument or a bind failure
must abort the process with a clear category and code.

Error Categories:
  - CategoryStartup: CLI argument and listener-bind failures
  - CategoryTransport: socket errors swallowed at the RPC task boundary,
    recorded only for debug-level logging, never retried out of band
*/
package errors

import "fmt"

// Code identifies a specific error condition.
type Code int

const (
	CodeBadReplicaID Code = 1000 + iota
	CodeBindFailed
)

const (
	CodeDial Code = 2000 + iota
	CodeReadTimeout
	CodeWriteTimeout
	CodeShortFrame
)

// Category groups related error codes.
type Category string

const (
	CategoryStartup   Category = "STARTUP"
	CategoryTransport Category = "TRANSPORT"
)

// RaftError is a structured error carrying a category, code and cause.
type RaftError struct {
	Code     Code
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *RaftError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("raftd: %s (%d): %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("raftd: %s (%d): %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RaftError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying cause and returns the receiver.
func (e *RaftError) WithCause(cause error) *RaftError {
	e.Cause = cause
	return e
}

// BadReplicaID reports a CLI argument outside [0, n).
func BadReplicaID(arg string, n int) *RaftError {
	return &RaftError{
		Code:     CodeBadReplicaID,
		Category: CategoryStartup,
		Message:  fmt.Sprintf("replica id %q must be an integer in [0, %d)", arg, n),
	}
}

// BindFailed reports a listener that could not be bound.
func BindFailed(addr string, cause error) *RaftError {
	return &RaftError{
		Code:     CodeBindFailed,
		Category: CategoryStartup,
		Message:  fmt.Sprintf("failed to bind %s", addr),
		Cause:    cause,
	}
}

// Dial reports a failed outbound connection attempt.
func Dial(addr string, cause error) *RaftError {
	return &RaftError{
		Code:     CodeDial,
		Category: CategoryTransport,
		Message:  fmt.Sprintf("dial %s failed", addr),
		Cause:    cause,
	}
}

// ReadTimeout reports a failed inbound frame read.
func ReadTimeout(addr string, cause error) *RaftError {
	return &RaftError{
		Code:     CodeReadTimeout,
		Category: CategoryTransport,
		Message:  fmt.Sprintf("read from %s failed", addr),
		Cause:    cause,
	}
}

// WriteTimeout reports a failed outbound frame write.
func WriteTimeout(addr string, cause error) *RaftError {
	return &RaftError{
		Code:     CodeWriteTimeout,
		Category: CategoryTransport,
		Message:  fmt.Sprintf("write to %s failed", addr),
		Cause:    cause,
	}
}

// ShortFrame reports a write that completed fewer than FrameSize bytes.
func ShortFrame(addr string) *RaftError {
	return &RaftError{
		Code:     CodeShortFrame,
		Category: CategoryTransport,
		Message:  fmt.Sprintf("short frame written to %s", addr),
	}
}

// IsStartup reports whether err is a RaftError in CategoryStartup.
func IsStartup(err error) bool {
	e, ok := err.(*RaftError)
	return ok && e.Category == CategoryStartup
}

// IsTransport reports whether err is a RaftError in CategoryTransport.
func IsTransport(err error) bool {
	e, ok := err.(*RaftError)
	return ok && e.Category == CategoryTransport
}
