// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is the structured error every failure path funnels into. Kind is one
// of the closed set in kinds.go and drives the HTTP status and the suggestion
// list of the rendered envelope.
type Error struct {
	Stack        []runtime.Frame
	InnerError   error
	Kind         Kind
	Message      string
	WorkflowName string
	RunID        string
	Container    string
	Deployment   string
	Suggestions  []string
}

func (e *Error) Error() string {
	if e.InnerError == nil {
		return fmt.Sprintf("kind %s message %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("kind %s message %s error %s", e.Kind, e.Message, e.InnerError.Error())
}

func (e *Error) Unwrap() error {
	return e.InnerError
}

func (e *Error) GetTopStackString() string {
	if len(e.Stack) == 0 {
		return ""
	}
	frame := e.Stack[0]
	funcName := ""
	if frame.Func != nil {
		funcName = frame.Func.Name()
	}
	funcNames := strings.Split(funcName, "/")
	if len(funcNames) > 0 {
		funcName = funcNames[len(funcNames)-1]
	}
	return fmt.Sprintf("%s:%d %s", frame.File, frame.Line, funcName)
}

func (e *Error) GetStackString() string {
	result := ""
	for _, frame := range e.Stack {
		funcName := ""
		if frame.Func != nil {
			funcName = frame.Func.Name()
		}
		funcNames := strings.Split(funcName, "/")
		if len(funcNames) > 0 {
			funcName = funcNames[len(funcNames)-1]
		}
		result = fmt.Sprintf("%s%s:%d %s\n", result, frame.File, frame.Line, funcName)
	}
	return result
}

func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

func (e *Error) WithMessagef(message string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(message, args...)
	return e
}

func (e *Error) WithError(err error) *Error {
	e.InnerError = err
	return e
}

func (e *Error) WithWorkflow(name string) *Error {
	e.WorkflowName = name
	return e
}

func (e *Error) WithRunID(runID string) *Error {
	e.RunID = runID
	return e
}

func (e *Error) WithContainer(container string) *Error {
	e.Container = container
	return e
}

func (e *Error) WithDeployment(deployment string) *Error {
	e.Deployment = deployment
	return e
}

func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = suggestions
	return e
}

// EffectiveSuggestions returns the attached suggestions, falling back to the
// kind's defaults.
func (e *Error) EffectiveSuggestions() []string {
	if len(e.Suggestions) > 0 {
		return e.Suggestions
	}
	return defaultSuggestions(e.Kind)
}

func NewError() *Error {
	return newError(2)
}

func New(kind Kind, message string) *Error {
	return newError(2).WithKind(kind).WithMessage(message)
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return newError(2).WithKind(kind).WithMessagef(format, args...)
}

func Wrap(err error, kind Kind, message string) *Error {
	return newError(2).WithKind(kind).WithMessage(message).WithError(err)
}

func newError(callerSkip int) *Error {
	return &Error{
		Stack:      callers(callerSkip),
		InnerError: nil,
		Kind:       KindWorkflowSubmissionError,
		Message:    "",
	}
}

// AsError unwraps err down to a *Error if one is in the chain.
func AsError(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// KindOf reports the kind of err, or KindWorkflowSubmissionError when err
// carries no structured kind.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindWorkflowSubmissionError
}

func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

func callers(callerSkip int) []runtime.Frame {
	rpc := make([]uintptr, 10)
	result := []runtime.Frame{}
	n := runtime.Callers(callerSkip+2, rpc)
	if n < 1 {
		return result
	}
	frames := runtime.CallersFrames(rpc)
	if frames == nil {
		return result
	}
	for frame, more := frames.Next(); more; {
		result = append(result, frame)
		frame, more = frames.Next()
	}
	return result
}
