package grammar

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is the raw, ordered form of a grammar. Earlier entries win over
// later ones when both could match the same text.
type Definition []RuleDef

// RuleDef pairs a token type name with the spec of the rule producing it.
// Several RuleDefs may share a name.
type RuleDef struct {
	Name string
	Spec RuleSpec
}

// RuleSpec describes one rule before compilation.
type RuleSpec struct {
	// Pattern is a regex source or a /source/flags literal.
	Pattern string

	CaseInsensitive bool
	Global          bool
	Multiline       bool
	DotAll          bool

	// Lookbehind marks the pattern's first capturing group as context that
	// must precede the token but is not part of it.
	Lookbehind bool

	// Inside is applied recursively to the matched text.
	Inside Definition
}

func (s RuleSpec) flags() Flags {
	return Flags{
		CaseInsensitive: s.CaseInsensitive,
		Global:          s.Global,
		Multiline:       s.Multiline,
		DotAll:          s.DotAll,
	}
}

// Define is a shorthand for a RuleDef holding a bare pattern.
func Define(name, pattern string) RuleDef {
	return RuleDef{Name: name, Spec: RuleSpec{Pattern: pattern}}
}

// DefineInside is a shorthand for a RuleDef whose matches are tokenized again
// with inside.
func DefineInside(name, pattern string, inside Definition) RuleDef {
	return RuleDef{Name: name, Spec: RuleSpec{Pattern: pattern, Inside: inside}}
}

// ruleSpecYAML is the object form of a rule in language files.
type ruleSpecYAML struct {
	Pattern         string     `yaml:"pattern"`
	Lookbehind      bool       `yaml:"lookbehind"`
	CaseInsensitive bool       `yaml:"case_insensitive"`
	Global          bool       `yaml:"global"`
	Multiline       bool       `yaml:"multiline"`
	DotAll          bool       `yaml:"dot_all"`
	Inside          Definition `yaml:"inside"`
}

// UnmarshalYAML decodes a definition while keeping declaration order.
//
// Accepted shapes:
//
//	- comment: '/\/\*[\w\W]*?\*\//'      # sequence of single-key mappings
//	- atrule:
//	    pattern: '/@[\w-]+?.*?(;|(?=\s*\{))/i'
//	    inside:
//	      - punctuation: '/[;:]/g'
//
// or a plain mapping (yaml.Node keeps key order). A value may also be a
// sequence of patterns/objects, producing several rules with the same name.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	var defs Definition

	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: grammar entry must be a mapping", item.Line)
			}
			parsed, err := decodeMapping(item)
			if err != nil {
				return err
			}
			defs = append(defs, parsed...)
		}
	case yaml.MappingNode:
		parsed, err := decodeMapping(node)
		if err != nil {
			return err
		}
		defs = parsed
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*d = nil
			return nil
		}
		return fmt.Errorf("line %d: grammar must be a sequence or mapping", node.Line)
	default:
		return fmt.Errorf("line %d: grammar must be a sequence or mapping", node.Line)
	}

	*d = defs
	return nil
}

func decodeMapping(node *yaml.Node) (Definition, error) {
	var defs Definition
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		specs, err := decodeSpecs(value)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", key.Value, err)
		}
		for _, spec := range specs {
			defs = append(defs, RuleDef{Name: key.Value, Spec: spec})
		}
	}
	return defs, nil
}

func decodeSpecs(node *yaml.Node) ([]RuleSpec, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []RuleSpec{{Pattern: node.Value}}, nil
	case yaml.MappingNode:
		var raw ruleSpecYAML
		if err := node.Decode(&raw); err != nil {
			return nil, err
		}
		return []RuleSpec{{
			Pattern:         raw.Pattern,
			CaseInsensitive: raw.CaseInsensitive,
			Global:          raw.Global,
			Multiline:       raw.Multiline,
			DotAll:          raw.DotAll,
			Lookbehind:      raw.Lookbehind,
			Inside:          raw.Inside,
		}}, nil
	case yaml.SequenceNode:
		var specs []RuleSpec
		for _, item := range node.Content {
			if item.Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: nested pattern lists are not allowed", item.Line)
			}
			s, err := decodeSpecs(item)
			if err != nil {
				return nil, err
			}
			specs = append(specs, s...)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported rule value", node.Line)
	}
}
