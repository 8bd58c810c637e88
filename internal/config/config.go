package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/chime/internal/clock"
)

//go:embed schema.cue
var schemaCUE string

// Definition is a decoded clock definition file.
type Definition struct {
	// Name labels the clock in logs and traces. Optional.
	Name string `yaml:"name,omitempty"`

	// Order is "least_significant_first" or "most_significant_first".
	// Required whenever partitions are declared (builder rule).
	Order string `yaml:"order,omitempty"`

	Partitions []PartitionDef `yaml:"partitions,omitempty"`
	Pulses     []PulseDef     `yaml:"pulses,omitempty"`
}

// PartitionDef declares one mixed-radix digit.
type PartitionDef struct {
	Name    string `yaml:"name"`
	Modulus uint64 `yaml:"modulus"`
}

// PulseDef declares one pulse: either a periodic shorthand (every) or a
// full condition tree (when). Exactly one must be set.
type PulseDef struct {
	Name  string        `yaml:"name"`
	Every *uint64       `yaml:"every,omitempty"`
	When  *ConditionDef `yaml:"when,omitempty"`
}

// ConditionDef is one node of a condition tree. Exactly one variant must be
// populated; `partition` carries either `equals` or `modulo`+`remainder`.
type ConditionDef struct {
	Every     *uint64        `yaml:"every,omitempty"`
	Partition string         `yaml:"partition,omitempty"`
	Equals    *uint64        `yaml:"equals,omitempty"`
	Modulo    *uint64        `yaml:"modulo,omitempty"`
	Remainder *uint64        `yaml:"remainder,omitempty"`
	Range     *RangeDef      `yaml:"range,omitempty"`
	Not       *ConditionDef  `yaml:"not,omitempty"`
	All       []ConditionDef `yaml:"all,omitempty"`
	Any       []ConditionDef `yaml:"any,omitempty"`
}

// RangeDef is an inclusive tick range.
type RangeDef struct {
	From uint64 `yaml:"from"`
	To   uint64 `yaml:"to"`
}

// LoadDefinition reads, schema-checks, and decodes a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition schema-checks and decodes a YAML definition document.
func ParseDefinition(data []byte) (*Definition, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	return &def, nil
}

// Load is the one-call path from a definition file to a validated clock.
func Load(path string, opts ...clock.Option) (*clock.Clock, error) {
	def, err := LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	return def.Build(opts...)
}

// Build translates the definition into builder calls and constructs the
// clock. Referential and numeric invariants are enforced by the builder.
func (d *Definition) Build(opts ...clock.Option) (*clock.Clock, error) {
	b := clock.NewBuilder()

	switch d.Order {
	case "":
		// Leave unset; the builder decides whether that is acceptable.
	case "least_significant_first":
		b.LeastSignificantFirst()
	case "most_significant_first":
		b.MostSignificantFirst()
	default:
		return nil, fmt.Errorf("unknown partition order %q", d.Order)
	}

	for _, part := range d.Partitions {
		b.AddPartition(norm.NFC.String(part.Name), part.Modulus)
	}

	for _, pulse := range d.Pulses {
		name := norm.NFC.String(pulse.Name)
		switch {
		case pulse.Every != nil && pulse.When != nil:
			return nil, fmt.Errorf("pulse %q declares both every and when", pulse.Name)
		case pulse.Every != nil:
			b.AddPeriodicPulse(name, *pulse.Every)
		case pulse.When != nil:
			cond, err := pulse.When.translate()
			if err != nil {
				return nil, fmt.Errorf("pulse %q: %w", pulse.Name, err)
			}
			b.AddConditionalPulse(name, cond)
		default:
			return nil, fmt.Errorf("pulse %q declares neither every nor when", pulse.Name)
		}
	}

	return b.Build(opts...)
}

// translate converts one condition node into the clock's condition tree.
func (c *ConditionDef) translate() (clock.Condition, error) {
	variants := 0
	if c.Every != nil {
		variants++
	}
	if c.Partition != "" {
		variants++
	}
	if c.Range != nil {
		variants++
	}
	if c.Not != nil {
		variants++
	}
	if c.All != nil {
		variants++
	}
	if c.Any != nil {
		variants++
	}
	if variants != 1 {
		return nil, fmt.Errorf("condition must use exactly one of every/partition/range/not/all/any, got %d", variants)
	}

	switch {
	case c.Every != nil:
		return clock.Every(*c.Every), nil

	case c.Partition != "":
		name := norm.NFC.String(c.Partition)
		switch {
		case c.Equals != nil && c.Modulo == nil && c.Remainder == nil:
			return clock.PartitionEquals(name, *c.Equals), nil
		case c.Equals == nil && c.Modulo != nil:
			var remainder uint64
			if c.Remainder != nil {
				remainder = *c.Remainder
			}
			return clock.PartitionModulo(name, *c.Modulo, remainder), nil
		default:
			return nil, fmt.Errorf("partition condition on %q needs either equals or modulo", c.Partition)
		}

	case c.Range != nil:
		return clock.TickRange(c.Range.From, c.Range.To), nil

	case c.Not != nil:
		child, err := c.Not.translate()
		if err != nil {
			return nil, err
		}
		return clock.Not(child), nil

	case c.All != nil:
		children, err := translateList(c.All)
		if err != nil {
			return nil, err
		}
		return clock.And(children...), nil

	default: // c.Any != nil
		children, err := translateList(c.Any)
		if err != nil {
			return nil, err
		}
		return clock.Or(children...), nil
	}
}

func translateList(defs []ConditionDef) ([]clock.Condition, error) {
	children := make([]clock.Condition, 0, len(defs))
	for i := range defs {
		child, err := defs[i].translate()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// validateSchema unifies the raw document with the embedded CUE schema.
// Rejects unknown fields, wrong shapes, and out-of-domain scalars before
// any decode happens.
func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Definition"))
	if err := schema.Err(); err != nil {
		// The embedded schema is part of the binary; failing to compile
		// it is a programming error, not a user error.
		panic("embedded definition schema invalid: " + err.Error())
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("definition schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
