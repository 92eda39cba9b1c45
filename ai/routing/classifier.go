package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/todoc/ai/cache"
	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/ai/persona"
)

const classifierInstruction = `You are the router of a parenting diary app with three assistants:
- parenting (육아 AI): sleep, routines, play, hygiene, emotional support for parents.
- medical (의사 AI): symptoms, illness, medicine, injuries, emergencies.
- nutrition (영양 AI): feeding, baby food, allergies, choking risks, recipes.
The current assistant is %s (%s).
Classify the user's message for the current assistant and answer with JSON only:
{"decision": "in_scope|ambiguous|off_topic", "target": "parenting|medical|nutrition|other", "reason": "<short reason>"}
- in_scope: the current assistant should answer.
- ambiguous: the current assistant can answer, but another assistant fits better.
- off_topic: the message belongs to another assistant.
target is the assistant that fits best.`

var classificationSchema = llm.ObjectSchema(map[string]*llm.JSONSchema{
	"decision": llm.StringProp("routing decision", string(InScope), string(Ambiguous), string(OffTopic)),
	"target":   llm.StringProp("best fitting assistant", "parenting", "medical", "nutrition", "other"),
	"reason":   llm.StringProp("short reason"),
}, "decision", "target", "reason")

type classification struct {
	Decision string `json:"decision"`
	Target   string `json:"target"`
	Reason   string `json:"reason"`
}

// ClassifierConfig tunes the classifier.
type ClassifierConfig struct {
	// Model overrides the LLM model for classification.
	Model    string
	CacheTTL time.Duration
	Metrics  metrics.Recorder
}

// Classifier asks the LLM to classify a message. Results are cached per
// (persona, message).
type Classifier struct {
	llm     llm.Service
	model   string
	cache   *cache.LRUCache[string, Decision]
	metrics metrics.Recorder
}

// NewClassifier creates a classifier. A nil service always falls back.
func NewClassifier(svc llm.Service, cfg ClassifierConfig) *Classifier {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &Classifier{
		llm:     svc,
		model:   cfg.Model,
		cache:   cache.NewLRUCache[string, Decision](500, cfg.CacheTTL),
		metrics: cfg.Metrics,
	}
}

// Cache exposes the decision cache for expiry sweeps.
func (c *Classifier) Cache() cache.Expirer {
	return c.cache
}

func fallback(current persona.Persona) Decision {
	return Decision{Kind: Ambiguous, Target: current, Reason: ReasonFallback}
}

// Classify returns the model's decision. Transport errors, malformed output
// and unknown decisions yield ambiguous/current with reason "fallback".
func (c *Classifier) Classify(ctx context.Context, current persona.Persona, message string) Decision {
	key := string(current) + "\x00" + strings.TrimSpace(message)
	if d, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheHit("routing")
		return d
	}
	c.metrics.RecordCacheMiss("routing")

	if c.llm == nil {
		return fallback(current)
	}

	messages := []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(classifierInstruction, current, current.DisplayName())),
		llm.UserMessage(message),
	}
	var out classification
	_, err := c.llm.ChatJSON(ctx, messages, classificationSchema, &out,
		llm.WithModel(c.model),
		llm.WithTemperature(0.01),
		llm.WithMaxTokens(120),
		llm.WithSchemaName("route_decision"),
	)
	if err != nil {
		slog.Warn("routing: classifier failed, falling back", "persona", current, "error", err)
		return fallback(current)
	}

	kind := Kind(strings.ToLower(strings.TrimSpace(out.Decision)))
	if !kind.Valid() {
		slog.Warn("routing: classifier returned unknown decision", "persona", current, "decision", out.Decision)
		return fallback(current)
	}

	target := current
	if t := strings.ToLower(strings.TrimSpace(out.Target)); t == string(TargetOther) {
		target = TargetOther
	} else if p, err := persona.Parse(t); err == nil {
		target = p
	}

	d := Decision{Kind: kind, Target: target, Reason: out.Reason}
	c.cache.SetWithDefaultTTL(key, d)
	return d
}
