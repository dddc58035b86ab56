package router

import (
	"fmt"
	"text/template"

	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/kb"
	"github.com/hupe1980/agentrouter/model"
)

// Default prompt templates. The instructions block carries the agent context,
// the prompt block carries the user query. Both render byte-identically for
// the same entry and request.
const (
	DefaultInstructionsTemplate = "You are {{.Name}}.\n\n{{.Context}}" +
		"{{if .Language}}\n\nRespond in this language if possible: {{.Language}}{{end}}"
	DefaultPromptTemplate = "{{.Query}}{{if .CustomerID}}\n\n(customer_id: {{.CustomerID}}){{end}}"
)

// PromptData is the value both templates are executed against.
type PromptData struct {
	AgentID    string
	Name       string
	Context    string
	Examples   []string
	Query      string
	CustomerID string
	Language   string
}

type promptBuilder struct {
	instructions *template.Template
	prompt       *template.Template
}

func newPromptBuilder(instructions, prompt string) (promptBuilder, error) {
	it, err := util.ParseTemplate("instructions", instructions)
	if err != nil {
		return promptBuilder{}, err
	}
	pt, err := util.ParseTemplate("prompt", prompt)
	if err != nil {
		return promptBuilder{}, err
	}
	return promptBuilder{instructions: it, prompt: pt}, nil
}

// build renders the model request. req must already be normalized.
func (b promptBuilder) build(e kb.Entry, req Request) (model.Request, error) {
	data := PromptData{
		AgentID:    e.ID,
		Name:       e.Name,
		Context:    e.Context,
		Examples:   e.Examples,
		Query:      req.Query,
		CustomerID: req.CustomerID,
		Language:   req.Language,
	}

	instructions, err := util.ExecuteTemplate(b.instructions, data)
	if err != nil {
		return model.Request{}, fmt.Errorf("assemble prompt for %q: %w", e.ID, err)
	}
	prompt, err := util.ExecuteTemplate(b.prompt, data)
	if err != nil {
		return model.Request{}, fmt.Errorf("assemble prompt for %q: %w", e.ID, err)
	}
	return model.Request{Instructions: instructions, Prompt: prompt}, nil
}
