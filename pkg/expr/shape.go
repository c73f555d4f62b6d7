// Package expr recognizes dotted-path DSL tokens. It decomposes a token such as
// `cycle.debuff.haste.stack.any` into a known expression family by matching
// it against declarative shapes, extracts the embedded names and synthesizes
// documentation from the generalized catalog entry.
package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
)

// SegmentKind classifies one dotted segment of a shape skeleton.
type SegmentKind uint8

const (
	// SegmentLiteral must equal its text verbatim.
	SegmentLiteral SegmentKind = iota
	// SegmentCapture binds a free-form name (or numeric index) to a placeholder slot.
	SegmentCapture
	// SegmentProperty matches any identifier; the generalized pattern decides
	// whether the property exists.
	SegmentProperty
)

// Segment is one element of a shape skeleton.
type Segment struct {
	Kind SegmentKind
	Text string // Literal text, or the placeholder for captures.
}

// Modifier is a bit set of optional variants layered on a base shape.
type Modifier uint8

const (
	// ModAny allows a trailing `.any` (applied by any source).
	ModAny Modifier = 1 << iota
	// ModMine allows a trailing `.mine` (applied by the player only).
	ModMine
	// ModCycle allows a leading `cycle.` (evaluated on the current cycle target).
	ModCycle
	// ModCall allows the call form `unit.family.property(name)`.
	ModCall
)

// Has reports whether all bits of other are set.
func (m Modifier) Has(other Modifier) bool { return m&other == other }

// String renders the set bits for logs and tests.
func (m Modifier) String() string {
	var parts []string

	for _, flag := range []struct {
		bit  Modifier
		name string
	}{{ModAny, "any"}, {ModMine, "mine"}, {ModCycle, "cycle"}, {ModCall, "call"}} {
		if m.Has(flag.bit) {
			parts = append(parts, flag.name)
		}
	}

	return strings.Join(parts, "|")
}

// Shape is a declarative description of one templated expression family.
type Shape struct {
	Name      string
	Segments  []Segment
	Modifiers Modifier
	CallUnits []string // Units accepted in front of the call form.
}

// ErrInvalidShape indicates a malformed shape skeleton.
var ErrInvalidShape = errors.New("invalid shape")

// ParseShape builds a shape from a skeleton such as "debuff.SPELL.*":
// placeholders become captures, "*" a property and anything else a literal.
func ParseShape(skeleton string, mods Modifier, units ...string) (Shape, error) {
	if skeleton == "" {
		return Shape{}, fmt.Errorf("%w: empty skeleton", ErrInvalidShape)
	}

	parts := strings.Split(skeleton, ".")
	segments := make([]Segment, 0, len(parts))
	captures := 0

	for _, part := range parts {
		switch {
		case part == "":
			return Shape{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidShape, skeleton)
		case part == "*":
			segments = append(segments, Segment{Kind: SegmentProperty})
		case catalog.IsPlaceholder(part) || part == catalog.PlaceholderIndex:
			captures++

			segments = append(segments, Segment{Kind: SegmentCapture, Text: part})
		default:
			segments = append(segments, Segment{Kind: SegmentLiteral, Text: part})
		}
	}

	if captures == 0 {
		return Shape{}, fmt.Errorf("%w: %q has no capture", ErrInvalidShape, skeleton)
	}

	if mods.Has(ModCall) && (captures != 1 || len(units) == 0) {
		return Shape{}, fmt.Errorf("%w: call form of %q needs one capture and at least one unit", ErrInvalidShape, skeleton)
	}

	return Shape{Name: skeleton, Segments: segments, Modifiers: mods, CallUnits: units}, nil
}

// MustShape is ParseShape for static shape tables; it panics on error.
func MustShape(skeleton string, mods Modifier, units ...string) Shape {
	shape, err := ParseShape(skeleton, mods, units...)
	if err != nil {
		panic(err)
	}

	return shape
}

var auraUnits = []string{"player", "target", "focus", "pet", "mouseover"} //nolint:gochecknoglobals // static table

// DefaultShapes returns the built-in shape catalog, longest skeletons first so
// that shorter families never shadow longer ones.
func DefaultShapes() []Shape {
	return []Shape{
		MustShape("trinket.N.*.*", 0),
		MustShape("buff.SPELL.*", ModAny|ModMine|ModCall, auraUnits...),
		MustShape("debuff.SPELL.*", ModAny|ModMine|ModCycle|ModCall, auraUnits...),
		MustShape("dot.SPELL.*", ModAny|ModMine|ModCycle|ModCall, auraUnits...),
		MustShape("cooldown.SPELL.*", 0),
		MustShape("action.SPELL.*", ModCycle),
		MustShape("spell.SPELL.*", 0),
		MustShape("talent.TALENT.*", 0),
		MustShape("trinket.N.*", 0),
		MustShape("prev_gcd.N.SPELL", 0),
		MustShape("prev.SPELL", 0),
		MustShape("prev_off_gcd.SPELL", 0),
		MustShape("variable.VARNAME", 0),
		MustShape("config.VARNAME", 0),
	}
}
