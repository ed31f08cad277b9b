// Package gateway answers shopper messages: canned replies first, the model
// otherwise, with a localized fallback whenever the model call fails.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-chat/internal/catalog"
	"storefront-chat/internal/llm"
	"storefront-chat/internal/logging"
	"storefront-chat/internal/prompt"
	"storefront-chat/internal/storage"
)

const (
	DefaultSessionID = "default"
	DefaultTimeout   = 30 * time.Second
)

// DefaultParams keep replies sales-oriented and moderately varied.
var DefaultParams = llm.Params{
	Temperature:      0.8,
	MaxTokens:        500,
	TopP:             0.9,
	FrequencyPenalty: 0.3,
	PresencePenalty:  0.3,
}

type Cache interface {
	Lookup(message string) (string, bool)
}

type Sessions interface {
	Append(sessionID, role, content string)
	Reset(sessionID string)
}

type PromptBuilder interface {
	Build(sessionID string, products []catalog.Product) ([]llm.Message, error)
}

type Request struct {
	SessionID string
	Message   string
	Page      prompt.PageContext
	// Products is the live catalog sent by the storefront. When empty the
	// gateway uses the catalog it was configured with.
	Products []catalog.Product
}

type Reply struct {
	Text      string
	Source    storage.Source
	Timestamp time.Time
}

type Options struct {
	Cache     Cache
	Sessions  Sessions
	Prompts   PromptBuilder
	Client    llm.Client
	Catalog   []catalog.Product
	Recorder  storage.Recorder // optional
	Fallbacks Fallbacks
	Timeout   time.Duration
	Params    llm.Params
	Logger    logrus.FieldLogger
}

type Gateway struct {
	cache     Cache
	sessions  Sessions
	prompts   PromptBuilder
	client    llm.Client
	catalog   []catalog.Product
	recorder  storage.Recorder
	fallbacks Fallbacks
	timeout   time.Duration
	params    llm.Params
	log       logrus.FieldLogger
	now       func() time.Time
}

func New(opts Options) *Gateway {
	g := &Gateway{
		cache:     opts.Cache,
		sessions:  opts.Sessions,
		prompts:   opts.Prompts,
		client:    opts.Client,
		catalog:   opts.Catalog,
		recorder:  opts.Recorder,
		fallbacks: opts.Fallbacks,
		timeout:   opts.Timeout,
		params:    opts.Params,
		log:       opts.Logger,
		now:       time.Now,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.params == (llm.Params{}) {
		g.params = DefaultParams
	}
	if g.fallbacks == (Fallbacks{}) {
		g.fallbacks = DefaultFallbacks("")
	}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}
	return g
}

func SessionOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultSessionID
	}
	return id
}

// Reply runs one exchange for the session. The error is reserved for internal
// failures; upstream problems are answered with a fallback text.
func (g *Gateway) Reply(ctx context.Context, req Request) (Reply, error) {
	sessionID := SessionOrDefault(req.SessionID)
	log := logging.FromContext(ctx, g.log).WithField("session", sessionID)

	if text, ok := g.cache.Lookup(req.Message); ok {
		g.sessions.Append(sessionID, llm.RoleUser, req.Message)
		g.sessions.Append(sessionID, llm.RoleAssistant, text)
		log.Debug("answered from cache")
		return g.finish(log, sessionID, req.Message, text, storage.SourceCache, llm.Response{}), nil
	}

	// The user turn stays even if the model call fails, so a resubmit keeps context.
	g.sessions.Append(sessionID, llm.RoleUser, req.Message)

	products := req.Products
	if len(products) == 0 {
		products = g.catalog
	}
	msgs, err := g.prompts.Build(sessionID, products)
	if err != nil {
		return Reply{}, fmt.Errorf("build prompt: %w", err)
	}
	prompt.Annotate(msgs, req.Page)

	// Shoppers cannot cancel an in-flight call; only the timeout bounds it.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	started := g.now()
	resp, err := g.client.Generate(callCtx, msgs, g.params)
	if err != nil {
		kind := llm.Classify(err)
		log.WithError(err).WithField("kind", kind.String()).Error("upstream chat completion failed")
		return g.finish(log, sessionID, req.Message, g.fallbacks.For(kind), storage.SourceFallback, llm.Response{}), nil
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		log.WithField("model", resp.Model).Warn("upstream returned an empty completion")
		return g.finish(log, sessionID, req.Message, g.fallbacks.Generic, storage.SourceFallback, resp), nil
	}

	g.sessions.Append(sessionID, llm.RoleAssistant, text)
	log.WithFields(logrus.Fields{
		"model":             resp.Model,
		"prompt_tokens":     resp.PromptTokens,
		"completion_tokens": resp.CompletionTokens,
		"total_tokens":      resp.TotalTokens,
		"duration":          g.now().Sub(started).String(),
	}).Info("upstream reply")
	return g.finish(log, sessionID, req.Message, text, storage.SourceLLM, resp), nil
}

func (g *Gateway) Reset(sessionID string) {
	g.sessions.Reset(SessionOrDefault(sessionID))
}

func (g *Gateway) finish(log logrus.FieldLogger, sessionID, userMsg, text string, src storage.Source, resp llm.Response) Reply {
	r := Reply{Text: text, Source: src, Timestamp: g.now().UTC()}
	if g.recorder == nil {
		return r
	}
	ev := storage.Event{
		Timestamp:         r.Timestamp,
		SessionID:         sessionID,
		UserMessage:       userMsg,
		AssistantResponse: text,
		Source:            src,
		Model:             resp.Model,
		TotalTokens:       resp.TotalTokens,
	}
	if err := g.recorder.AppendInteraction(ev); err != nil {
		log.WithError(err).Warn("failed to record exchange")
	}
	return r
}
