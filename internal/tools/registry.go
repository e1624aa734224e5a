// Package tools holds the actions the language model may invoke during a call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/utils"
)

// Declaration describes a tool to the language model.
type Declaration struct {
	Name        string
	Description string
	// Parameters maps argument name to a JSON schema type ("string", "number", ...).
	Parameters map[string]Param
	// Terminating tools end the call once their response has been spoken.
	Terminating bool
}

type Param struct {
	Type        string
	Description string
	Required    bool
}

// Result is the tool's spoken response and its declared effect.
type Result struct {
	Text      string
	Terminate bool
}

type Tool interface {
	Declaration() Declaration
	Invoke(ctx context.Context, session *models.CallSession, args map[string]any) (Result, error)
}

type Registry struct {
	tools    map[string]Tool
	fallback string
	log      *logrus.Logger
}

func NewRegistry(fallback string, log *logrus.Logger, tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}, fallback: fallback, log: log}
	for _, t := range tools {
		r.tools[t.Declaration().Name] = t
	}
	return r
}

// Declarations returns every registered tool sorted by name.
func (r *Registry) Declarations() []Declaration {
	out := make([]Declaration, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Declaration())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke dispatches call by name. It always returns a speakable Result; the
// error reports UnknownTool or a recovered fault for logging only.
func (r *Registry) Invoke(ctx context.Context, session *models.CallSession, call models.ToolCall) (res Result, err error) {
	const op = "Registry.Invoke"

	t, ok := r.tools[call.Name]
	if !ok {
		return Result{Text: r.fallback}, utils.E(utils.CodeNotFound, op, call.Name, utils.ErrUnknownTool)
	}
	terminating := t.Declaration().Terminating

	defer func() {
		if p := recover(); p != nil {
			res = Result{Text: r.fallback, Terminate: terminating}
			err = utils.E(utils.CodeInternal, op, call.Name, fmt.Errorf("%w: panic: %v", utils.ErrToolFault, p))
		}
		if err != nil && r.log != nil {
			r.log.WithFields(logrus.Fields{
				"tool":       call.Name,
				"session_id": session.ID(),
			}).WithError(err).Warn("tool invocation failed")
		}
	}()

	res, err = t.Invoke(ctx, session, call.Arguments)
	if err != nil {
		return Result{Text: r.fallback, Terminate: terminating}, utils.E(utils.CodeInternal, op, call.Name, fmt.Errorf("%w: %v", utils.ErrToolFault, err))
	}
	if res.Text == "" {
		res.Text = r.fallback
	}
	return res, nil
}

// decodeArgs converts the model's loosely typed arguments into dst.
func decodeArgs(args map[string]any, dst any) error {
	if len(args) == 0 {
		return nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
