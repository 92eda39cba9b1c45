package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hrygo/todoc/ai/agent"
	"github.com/hrygo/todoc/ai/cache"
	"github.com/hrygo/todoc/ai/chat"
	"github.com/hrygo/todoc/ai/core/embedding"
	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/core/reranker"
	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/insight"
	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/routing"
	"github.com/hrygo/todoc/ai/tools"
	"github.com/hrygo/todoc/store"
)

// RulesFile is the optional routing rule table inside the persona directory.
const RulesFile = "rules.yaml"

// Stack is the assembled AI layer the API serves.
type Stack struct {
	LLM       llm.Service
	Personas  *persona.Store
	Retrieval *retrieval.Service
	Chat      *chat.Service
	Insights  *insight.Service
	Summaries *insight.Summarizer

	stopJanitor context.CancelFunc
}

// NewStack wires every AI component from cfg. With AI disabled the stack
// still serves: replies fall back to fixed text and retrieval is off.
func NewStack(cfg *Config, st *store.Store, recorder metrics.Recorder) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	personas := persona.NewStore()
	rules := routing.DefaultRules
	if cfg.PersonaDir != "" {
		if err := personas.LoadOverrides(cfg.PersonaDir); err != nil {
			return nil, err
		}
		if _, err := os.Stat(filepath.Join(cfg.PersonaDir, RulesFile)); err == nil {
			extra, err := routing.LoadRules(cfg.PersonaDir, RulesFile)
			if err != nil {
				return nil, err
			}
			rules = append(append([]routing.Rule{}, rules...), extra...)
		}
	}
	ruleSet, err := routing.NewRuleSet(rules)
	if err != nil {
		return nil, err
	}

	s := &Stack{Personas: personas}
	var retriever retrieval.Retriever
	var web tools.WebSearcher
	janitor := cache.NewJanitor(cache.DefaultSweepInterval, recorder)
	if cfg.Enabled {
		llmCfg := cfg.LLM
		llmCfg.Metrics = recorder
		if s.LLM, err = llm.NewService(&llmCfg); err != nil {
			return nil, fmt.Errorf("create llm service: %w", err)
		}
		embedder, err := embedding.NewProvider(&cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("create embedding provider: %w", err)
		}
		s.Retrieval = retrieval.NewService(embedder, st, personas, reranker.NewService(&cfg.Reranker), retrieval.Options{})
		retriever = s.Retrieval

		webCfg := cfg.WebSearch
		webCfg.Metrics = recorder
		ddg := tools.NewDuckDuckGo(webCfg)
		janitor.Add("web_search", ddg.Cache())
		web = ddg

		go warmup(s.LLM)
		slog.Info("AI stack initialized",
			"provider", cfg.LLM.Provider,
			"model", cfg.LLM.Model,
			"embedding_model", cfg.Embedding.Model,
			"rerank", cfg.Reranker.Enabled,
			"rules", ruleSet.Len(),
		)
	} else {
		slog.Info("AI features disabled, serving fallback replies")
	}

	classifier := routing.NewClassifier(s.LLM, routing.ClassifierConfig{Model: cfg.ClassifierModel, Metrics: recorder})
	janitor.Add("routing", classifier.Cache())
	s.Chat = chat.NewService(st, chat.Config{
		Personas:  personas,
		Router:    routing.NewRouter(personas, classifier, ruleSet, recorder),
		Driver:    agent.NewDriver(s.LLM),
		Titles:    chat.NewTitleGenerator(s.LLM, cfg.ClassifierModel),
		Retriever: retriever,
		Web:       web,
		Metrics:   recorder,
		Debug:     cfg.Debug,
	})

	insightCfg := cfg.Insight
	insightCfg.Metrics = recorder
	s.Insights = insight.NewService(st, s.LLM, insightCfg)
	s.Summaries = insight.NewSummarizer(st, retriever, s.LLM, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopJanitor = cancel
	go janitor.Run(ctx)
	return s, nil
}

// Close stops the background cache sweeps.
func (s *Stack) Close() {
	if s.stopJanitor != nil {
		s.stopJanitor()
	}
}

// warmup opens the LLM connection so the first request is not slowed down.
func warmup(svc llm.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc.Warmup(ctx)
}
