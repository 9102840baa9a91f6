package domain

import (
	"errors"
	"fmt"
)

// ErrOutsideRender is raised when a hook is used without an active resolution pass.
var ErrOutsideRender = errors.New("hook used outside of an active render")

// ErrOutsideAction is raised when an action primitive is used outside of an action execution.
var ErrOutsideAction = errors.New("action primitive used outside of an action context")

// ErrHookOrder is raised when a component calls a different number or kind of hooks than in a previous render.
var ErrHookOrder = errors.New("order or number of hooks has changed")

// ErrUnknownTag is returned by the serializer for tags it has no text semantics for.
var ErrUnknownTag = errors.New("unknown tag")

// ErrActionNotFound is returned when an action name is absent from the registry.
var ErrActionNotFound = errors.New("action not found")

// ErrThreadNotFound is returned when a thread has never been rendered.
var ErrThreadNotFound = errors.New("thread not found")

// ErrTranscriptNotFound is returned when a transcript cannot be found in the store.
var ErrTranscriptNotFound = errors.New("transcript not found")

// ErrDocumentNotFound is returned by document sources for unknown names.
var ErrDocumentNotFound = errors.New("document not found")

// ErrIncludeCycle is returned when prompt documents include each other.
var ErrIncludeCycle = errors.New("document include cycle")

// ErrInvalidDocument is returned when a prompt document does not follow the node grammar.
var ErrInvalidDocument = errors.New("invalid document")

// ErrUnknownExecutor is returned when an action names an executor that was never registered.
var ErrUnknownExecutor = errors.New("unknown executor")

// HookOrderError describes a hook call that disagrees with the slots recorded for the same component.
type HookOrderError struct {
	Component string
	Index     int
	Want      string
	Got       string
}

func (e *HookOrderError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("%s: hook %d of %s was not called in the previous render", ErrHookOrder, e.Index, e.Component)
	}
	if e.Got == "" {
		return fmt.Sprintf("%s: %s rendered fewer hooks than before (expected %s at %d)", ErrHookOrder, e.Component, e.Want, e.Index)
	}
	return fmt.Sprintf("%s: hook %d of %s is %s, previously %s", ErrHookOrder, e.Index, e.Component, e.Got, e.Want)
}

func (e *HookOrderError) Unwrap() error { return ErrHookOrder }

// UnknownTagError names the tag the serializer could not handle.
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTag, e.Tag)
}

func (e *UnknownTagError) Unwrap() error { return ErrUnknownTag }
