// Package persona defines the three assistant personas, their policies and
// the keyword heuristics the router and agent consult.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// Persona identifies an assistant personality.
type Persona string

const (
	Parenting Persona = "parenting"
	Medical   Persona = "medical"
	Nutrition Persona = "nutrition"
)

// All lists the personas in display order.
var All = []Persona{Parenting, Medical, Nutrition}

// ErrUnknown is returned by Parse for an unrecognised persona id.
var ErrUnknown = errors.New("unknown persona")

// legacy ids still sent by older clients.
var aliases = map[string]Persona{
	"parenting": Parenting,
	"mom":       Parenting,
	"medical":   Medical,
	"doctor":    Medical,
	"nutrition": Nutrition,
	"nutrient":  Nutrition,
}

// Parse resolves a persona id, accepting the legacy ids mom, doctor and nutrient.
func Parse(s string) (Persona, error) {
	p, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return p, nil
}

// Valid reports whether p is one of the known personas.
func (p Persona) Valid() bool {
	return p == Parenting || p == Medical || p == Nutrition
}

// DisplayName returns the user-facing name of the persona.
func (p Persona) DisplayName() string {
	switch p {
	case Parenting:
		return "육아 AI"
	case Medical:
		return "의사 AI"
	case Nutrition:
		return "영양 AI"
	default:
		return string(p)
	}
}

func (p Persona) String() string {
	return string(p)
}
