package persona

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hrygo/todoc/ai/configloader"
)

// keywordsFile is the file stem that carries keyword overrides.
const keywordsFile = "keywords"

// rulesFile is the routing rule table, read by the router and skipped here.
const rulesFile = "rules"

// override is the YAML shape of a persona file. Zero fields keep the built-in value.
type override struct {
	DisplayName string    `yaml:"display_name"`
	System      string    `yaml:"system"`
	Collections []string  `yaml:"collections"`
	WebSearch   *bool     `yaml:"web_search"`
	Keywords    *Keywords `yaml:"keywords"`
}

// Store holds persona policies and keyword lists. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	policies map[Persona]*Policy
	keywords Keywords
}

// NewStore returns a store with the built-in policies and keywords.
func NewStore() *Store {
	return &Store{
		policies: builtinPolicies(),
		keywords: defaultKeywords(),
	}
}

// Policy returns a copy of the persona's policy. Unknown personas get the parenting policy.
func (s *Store) Policy(p Persona) *Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if policy, ok := s.policies[p]; ok {
		return policy.clone()
	}
	return s.policies[Parenting].clone()
}

// Keywords returns a copy of the active keyword lists.
func (s *Store) Keywords() Keywords {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Keywords{
		Medical:         append([]string(nil), s.keywords.Medical...),
		Emotional:       append([]string(nil), s.keywords.Emotional...),
		ChildInfo:       append([]string(nil), s.keywords.ChildInfo...),
		Personalization: append([]string(nil), s.keywords.Personalization...),
	}
}

// LoadOverrides applies YAML files found in dir.
//
// Files are named after a persona id (parenting.yaml, doctor.yml, ...) and
// replace that persona's policy fields. keywords.yaml replaces keyword lists.
// A missing directory is not an error.
func (s *Store) LoadOverrides(dir string) error {
	files, err := configloader.LoadDir[override](configloader.NewLoader(dir), ".")
	if err != nil {
		return fmt.Errorf("load persona overrides: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, o := range files {
		if name == rulesFile {
			continue
		}
		if name == keywordsFile {
			s.keywords.merge(o.Keywords)
			continue
		}
		p, err := Parse(name)
		if err != nil {
			return fmt.Errorf("persona override %s: %w", name, err)
		}
		policy := s.policies[p]
		if o.DisplayName != "" {
			policy.DisplayName = o.DisplayName
		}
		if o.System != "" {
			policy.System = o.System
		}
		if len(o.Collections) > 0 {
			policy.Collections = o.Collections
		}
		if o.WebSearch != nil {
			policy.WebSearch = *o.WebSearch
		}
		s.keywords.merge(o.Keywords)
		slog.Info("persona override loaded", "persona", p, "file", name)
	}
	return nil
}

// IsMedical reports symptom, diagnosis, treatment or emergency vocabulary.
func (s *Store) IsMedical(message string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAny(message, s.keywords.Medical)
}

// IsEmotionalSupport reports distress or mental-health vocabulary.
func (s *Store) IsEmotionalSupport(message string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAny(message, s.keywords.Emotional)
}

// IsChildInfo reports questions about the child's age, measurements or comparisons.
func (s *Store) IsChildInfo(message string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAny(message, s.keywords.ChildInfo)
}

// NeedsPersonalization reports whether the answer should lean on the child's diary.
func (s *Store) NeedsPersonalization(message string, p Persona) bool {
	if message == "" {
		return false
	}
	if p == Parenting || p == Nutrition {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAny(message, s.keywords.Personalization)
}
