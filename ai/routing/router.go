package routing

import (
	"context"

	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/ai/persona"
)

// Router classifies messages for the active persona.
type Router struct {
	personas   *persona.Store
	classifier *Classifier
	rules      *RuleSet
	metrics    metrics.Recorder
}

// NewRouter creates a router. A nil rules set applies no overrides.
func NewRouter(personas *persona.Store, classifier *Classifier, rules *RuleSet, recorder metrics.Recorder) *Router {
	if personas == nil {
		personas = persona.NewStore()
	}
	if classifier == nil {
		classifier = NewClassifier(nil, ClassifierConfig{})
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Router{personas: personas, classifier: classifier, rules: rules, metrics: recorder}
}

// Route decides how the current persona handles message.
func (r *Router) Route(ctx context.Context, current persona.Persona, message string) Decision {
	if r.personas.IsChildInfo(message) {
		r.metrics.RecordRouteDecision(string(current), string(InScope), "child_info")
		return Decision{Kind: InScope, Target: current, Reason: ReasonChildInfo}
	}

	d := r.classifier.Classify(ctx, current, message)
	source := "classifier"
	if d.Reason == ReasonFallback {
		source = "fallback"
	}

	facts := Facts{
		Persona:   current,
		Decision:  d.Kind,
		Medical:   r.personas.IsMedical(message),
		Emotional: r.personas.IsEmotionalSupport(message),
	}
	if ruled, ok := r.rules.Apply(facts, d); ok {
		d = ruled
		source = "rule"
	}

	d = resolve(current, d)
	r.metrics.RecordRouteDecision(string(current), string(d.Kind), source)
	return d
}

// resolve turns off_topic into the persona's handling.
func resolve(current persona.Persona, d Decision) Decision {
	if d.Kind != OffTopic {
		return d
	}
	switch current {
	case persona.Nutrition:
		d.Deflect = true
		d.Target = persona.Parenting
	case persona.Medical:
		d.Kind = InScope
		d.SuggestParenting = true
	default:
		d.Kind = InScope
	}
	return d
}
