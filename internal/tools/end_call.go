package tools

import (
	"context"
	"time"

	"github.com/yoockh/yootranslate/internal/models"
)

const EndCallName = "end_call"

// EndCall ends the call after the farewell is spoken.
type EndCall struct {
	Farewell string
	Now      func() time.Time
}

type endCallArgs struct {
	Reason string `json:"reason"`
}

func (e *EndCall) Declaration() Declaration {
	return Declaration{
		Name:        EndCallName,
		Description: "End the phone call. Use when the caller says goodbye or asks to hang up.",
		Parameters: map[string]Param{
			"reason": {Type: "string", Description: "Short reason the call is ending."},
		},
		Terminating: true,
	}
}

func (e *EndCall) Invoke(_ context.Context, session *models.CallSession, args map[string]any) (Result, error) {
	var a endCallArgs
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	reason := EndCallName
	if a.Reason != "" {
		reason = EndCallName + ": " + a.Reason
	}
	// A second invocation finds the session inactive and changes nothing.
	session.End(reason, now())
	return Result{Text: e.Farewell, Terminate: true}, nil
}
