package routing

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/hrygo/todoc/ai/configloader"
	"github.com/hrygo/todoc/ai/persona"
)

// Rule forces a decision when its CEL expression holds.
// Expressions see: persona (string), decision (string), medical,
// emotional and child_info (bool).
type Rule struct {
	Name       string          `yaml:"name"`
	Expression string          `yaml:"expression"`
	Decision   Kind            `yaml:"decision"`
	Target     persona.Persona `yaml:"target"`
}

// DefaultRules are applied in order. A later match overrides an earlier one,
// so emotional support under parenting wins over the medical rule.
var DefaultRules = []Rule{
	{
		Name:       "medical_outside_doctor",
		Expression: `persona in ["parenting", "nutrition"] && medical`,
		Decision:   OffTopic,
		Target:     persona.Medical,
	},
	{
		Name:       "parenting_emotional_support",
		Expression: `persona == "parenting" && emotional`,
		Decision:   InScope,
		Target:     persona.Parenting,
	},
}

// Facts are the rule inputs of one message.
type Facts struct {
	Persona   persona.Persona
	Decision  Kind
	Medical   bool
	Emotional bool
	ChildInfo bool
}

func (f Facts) activation() map[string]any {
	return map[string]any{
		"persona":    string(f.Persona),
		"decision":   string(f.Decision),
		"medical":    f.Medical,
		"emotional":  f.Emotional,
		"child_info": f.ChildInfo,
	}
}

type compiledRule struct {
	Rule
	program cel.Program
}

// RuleSet is a compiled, ordered rule table.
type RuleSet struct {
	rules []compiledRule
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("persona", cel.StringType),
		cel.Variable("decision", cel.StringType),
		cel.Variable("medical", cel.BoolType),
		cel.Variable("emotional", cel.BoolType),
		cel.Variable("child_info", cel.BoolType),
	)
}

// NewRuleSet compiles rules once. Every expression must be boolean.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if !r.Decision.Valid() {
			return nil, fmt.Errorf("rule %s: invalid decision %q", r.Name, r.Decision)
		}
		if r.Target != "" && !r.Target.Valid() {
			return nil, fmt.Errorf("rule %s: invalid target %q", r.Name, r.Target)
		}
		checked, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, issues.Err())
		}
		if !checked.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression must be boolean, got %s", r.Name, checked.OutputType())
		}
		program, err := env.Program(checked)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, program: program})
	}
	return rs, nil
}

// Apply evaluates the rules in order. Each matching rule overrides d, and
// later rules see the overridden decision. It reports whether any rule matched.
func (rs *RuleSet) Apply(f Facts, d Decision) (Decision, bool) {
	if rs == nil {
		return d, false
	}
	matched := false
	for _, r := range rs.rules {
		f.Decision = d.Kind
		out, _, err := r.program.Eval(f.activation())
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); !ok || !hit {
			continue
		}
		d.Kind = r.Decision
		d.Target = r.Target
		if d.Target == "" {
			d.Target = f.Persona
		}
		d.Reason = "rule:" + r.Name
		matched = true
	}
	return d, matched
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// LoadRules reads extra rules from a YAML file of the form
//
//	rules:
//	  - name: ...
//	    expression: ...
//	    decision: off_topic
//	    target: medical
func LoadRules(dir, file string) ([]Rule, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := configloader.NewLoader(dir).Load(file, &doc); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}
