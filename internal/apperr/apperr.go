// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package apperr defines the error kinds shared by the settings and status
// services and how they surface over HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrUnhandled    = errors.New("unhandled")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

// Canonical messages.
const (
	MsgBadRequest       = "Bad Request"
	MsgUnhandled        = "Unhandled Exception"
	MsgUnderMaintenance = "Service is under maintenance"
)

// NotFoundMessage formats the message used for a missing entity.
func NotFoundMessage(item string) string {
	if item == "" {
		item = "Item"
	}
	return fmt.Sprintf("%s not found", item)
}

// Error carries a kind, a human readable message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func BadRequest(msg string) error {
	if msg == "" {
		msg = MsgBadRequest
	}
	return &Error{Kind: ErrBadRequest, Message: msg}
}

func NotFound(item string) error {
	return &Error{Kind: ErrNotFound, Message: NotFoundMessage(item)}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Unhandled wraps an unexpected failure underneath a store or collaborator.
// Errors that already carry a kind are returned untouched.
func Unhandled(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: ErrUnhandled, Message: MsgUnhandled, Err: err}
}

// Message returns the user facing message of err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// HTTPStatus maps an error kind onto a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnhandled):
		return http.StatusExpectationFailed
	default:
		return http.StatusInternalServerError
	}
}
