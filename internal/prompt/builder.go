// Package prompt assembles the message list sent to the model: the rendered
// system prompt followed by the session history.
package prompt

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"storefront-chat/internal/catalog"
	"storefront-chat/internal/llm"
)

//go:embed default_prompt.tmpl
var DefaultTemplate string

// Replayer yields the prior turns of a session in order.
type Replayer interface {
	Replay(sessionID string) []llm.Message
}

type Store struct {
	Name    string
	Contact string
}

type Builder struct {
	tmpl    *template.Template
	store   Store
	history Replayer
}

type templateData struct {
	Store    string
	Contact  string
	Products []catalog.Product
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
}

func New(templateText string, store Store, history Replayer) (*Builder, error) {
	if strings.TrimSpace(templateText) == "" {
		templateText = DefaultTemplate
	}
	tmpl, err := template.New("system").Funcs(funcs).Option("missingkey=error").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parse system template: %w", err)
	}
	return &Builder{tmpl: tmpl, store: store, history: history}, nil
}

// System renders the system message for the given catalog.
func (b *Builder) System(products []catalog.Product) (llm.Message, error) {
	var sb strings.Builder
	data := templateData{Store: b.store.Name, Contact: b.store.Contact, Products: products}
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return llm.Message{}, fmt.Errorf("render system template: %w", err)
	}
	return llm.Message{Role: llm.RoleSystem, Content: strings.TrimSpace(sb.String())}, nil
}

// Build returns the system message followed by the session replay.
func (b *Builder) Build(sessionID string, products []catalog.Product) ([]llm.Message, error) {
	sys, err := b.System(products)
	if err != nil {
		return nil, err
	}
	replay := b.history.Replay(sessionID)
	out := make([]llm.Message, 0, len(replay)+1)
	out = append(out, sys)
	return append(out, replay...), nil
}
