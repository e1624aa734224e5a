package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/tools"
	"google.golang.org/api/iterator"
)

const (
	roleUser  = "user"
	roleModel = "model"

	// callStarted opens the rendered history when the assistant spoke first;
	// chat contents must start with the user role.
	callStarted = "[call connected]"
)

type VertexOptions struct {
	ProjectID    string
	Location     string
	Model        string
	Instructions string
	Temperature  float32
	Tools        []tools.Declaration
}

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, opts VertexOptions) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, opts.ProjectID, opts.Location)
	if err != nil {
		return nil, err
	}

	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(opts.Model)
	m.SetTemperature(opts.Temperature)
	if opts.Instructions != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(opts.Instructions)}}
	}
	if len(opts.Tools) > 0 {
		m.Tools = []*vertexgenai.Tool{{FunctionDeclarations: functionDeclarations(opts.Tools)}}
	}
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Respond(ctx context.Context, req Request) (Reply, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return Reply{}, errors.New("llm: empty utterance")
	}

	contents := buildContents(req)
	last := contents[len(contents)-1]

	cs := v.model.StartChat()
	cs.History = contents[:len(contents)-1]

	var parts []vertexgenai.Part
	it := cs.SendMessageStream(ctx, last.Parts...)
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return Reply{}, err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			parts = append(parts, cand.Content.Parts...)
		}
	}

	reply := replyFromParts(parts)
	if reply.Text == "" && reply.ToolCall == nil {
		return Reply{}, errors.New("llm: empty response")
	}
	return reply, nil
}

// buildContents renders history plus the staged utterance as alternating chat
// contents. The result always ends with a user content.
func buildContents(req Request) []*vertexgenai.Content {
	var out []*vertexgenai.Content
	add := func(role string, parts ...vertexgenai.Part) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &vertexgenai.Content{Role: role, Parts: parts})
	}

	for _, t := range req.History {
		switch {
		case t.Role == models.RoleCaller:
			add(roleUser, vertexgenai.Text(t.Content))
		case t.ToolCall != nil:
			if len(out) == 0 {
				add(roleUser, vertexgenai.Text(callStarted))
			}
			add(roleModel, vertexgenai.FunctionCall{Name: t.ToolCall.Name, Args: t.ToolCall.Arguments})
			add(roleUser, vertexgenai.FunctionResponse{
				Name:     t.ToolCall.Name,
				Response: map[string]any{"response": t.Content},
			})
		default:
			if len(out) == 0 {
				add(roleUser, vertexgenai.Text(callStarted))
			}
			add(roleModel, vertexgenai.Text(t.Content))
		}
	}
	add(roleUser, vertexgenai.Text(req.Utterance))
	return out
}

func replyFromParts(parts []vertexgenai.Part) Reply {
	var (
		sb    strings.Builder
		reply Reply
	)
	for _, p := range parts {
		switch v := p.(type) {
		case vertexgenai.Text:
			sb.WriteString(string(v))
		case vertexgenai.FunctionCall:
			if reply.ToolCall == nil {
				reply.ToolCall = &models.ToolCall{Name: v.Name, Arguments: v.Args}
			}
		case *vertexgenai.FunctionCall:
			if reply.ToolCall == nil && v != nil {
				reply.ToolCall = &models.ToolCall{Name: v.Name, Arguments: v.Args}
			}
		}
	}
	reply.Text = strings.TrimSpace(sb.String())
	return reply
}

func functionDeclarations(decls []tools.Declaration) []*vertexgenai.FunctionDeclaration {
	out := make([]*vertexgenai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &vertexgenai.FunctionDeclaration{Name: d.Name, Description: d.Description}
		if len(d.Parameters) > 0 {
			schema := &vertexgenai.Schema{
				Type:       vertexgenai.TypeObject,
				Properties: map[string]*vertexgenai.Schema{},
			}
			for name, p := range d.Parameters {
				schema.Properties[name] = &vertexgenai.Schema{Type: schemaType(p.Type), Description: p.Description}
				if p.Required {
					schema.Required = append(schema.Required, name)
				}
			}
			fd.Parameters = schema
		}
		out = append(out, fd)
	}
	return out
}

func schemaType(t string) vertexgenai.Type {
	switch t {
	case "number":
		return vertexgenai.TypeNumber
	case "integer":
		return vertexgenai.TypeInteger
	case "boolean":
		return vertexgenai.TypeBoolean
	case "array":
		return vertexgenai.TypeArray
	case "object":
		return vertexgenai.TypeObject
	default:
		return vertexgenai.TypeString
	}
}
