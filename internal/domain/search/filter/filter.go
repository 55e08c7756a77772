// Package filter defines the immutable boolean filter tree sent to the index.
package filter

import (
	"strconv"
	"strings"
)

// Kind tags the variant of an Expr node.
type Kind int

// Expression node kinds.
const (
	KindAll Kind = iota // zero value: matches every document
	KindEquals
	KindRange
	KindAnd
	KindOr
	KindNot
	KindExists
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindEquals:
		return "equals"
	case KindRange:
		return "range"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindExists:
		return "exists"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Bound is one side of a numeric range.
type Bound struct {
	value     float64
	inclusive bool
}

// Inclusive returns a bound that admits v itself.
func Inclusive(v float64) *Bound { return &Bound{value: v, inclusive: true} }

// Exclusive returns a bound that excludes v.
func Exclusive(v float64) *Bound { return &Bound{value: v} }

// Value returns the bound value.
func (b Bound) Value() float64 { return b.value }

// IsInclusive reports whether the bound admits its own value.
func (b Bound) IsInclusive() bool { return b.inclusive }

// Expr is a node of the filter tree. Nodes are never mutated after
// construction, so subtrees can be shared freely.
// The zero Expr matches all documents.
type Expr struct {
	kind  Kind
	field string
	value string
	lower *Bound
	upper *Bound
	left  *Expr
	right *Expr
}

// All returns the match-all expression.
func All() Expr { return Expr{} }

// Equals matches documents whose field holds value.
func Equals(field, value string) Expr {
	return Expr{kind: KindEquals, field: field, value: value}
}

// Range matches documents whose numeric field lies within the bounds.
// A nil bound leaves that side open.
func Range(field string, lower, upper *Bound) Expr {
	return Expr{kind: KindRange, field: field, lower: copyBound(lower), upper: copyBound(upper)}
}

// Exists matches documents that carry any value for field.
func Exists(field string) Expr {
	return Expr{kind: KindExists, field: field}
}

// And matches documents matched by both sides. Match-all operands are elided.
func And(left, right Expr) Expr {
	switch {
	case left.IsAll():
		return right
	case right.IsAll():
		return left
	}
	return Expr{kind: KindAnd, left: &left, right: &right}
}

// Or matches documents matched by either side. A match-all operand makes the
// whole disjunction match-all.
func Or(left, right Expr) Expr {
	if left.IsAll() || right.IsAll() {
		return All()
	}
	return Expr{kind: KindOr, left: &left, right: &right}
}

// Not inverts e.
func Not(e Expr) Expr {
	if e.kind == KindNot {
		return *e.left
	}
	return Expr{kind: KindNot, left: &e}
}

// AllOf folds exprs into a left-leaning And chain. No operands yields All.
func AllOf(exprs ...Expr) Expr {
	out := All()
	for _, e := range exprs {
		out = And(out, e)
	}
	return out
}

// AnyOf folds exprs into a left-leaning Or chain. ok is false when exprs is
// empty, since an empty disjunction has no sensible filter form.
func AnyOf(exprs ...Expr) (e Expr, ok bool) {
	if len(exprs) == 0 {
		return All(), false
	}
	out := exprs[0]
	for _, next := range exprs[1:] {
		out = Or(out, next)
	}
	return out, true
}

func copyBound(b *Bound) *Bound {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Kind returns the node variant.
func (e Expr) Kind() Kind { return e.kind }

// IsAll reports whether e matches every document.
func (e Expr) IsAll() bool { return e.kind == KindAll }

// Field returns the field of an Equals, Range or Exists node.
func (e Expr) Field() string { return e.field }

// Value returns the value of an Equals node.
func (e Expr) Value() string { return e.value }

// Lower returns the lower bound of a Range node, nil if open.
func (e Expr) Lower() *Bound { return copyBound(e.lower) }

// Upper returns the upper bound of a Range node, nil if open.
func (e Expr) Upper() *Bound { return copyBound(e.upper) }

// Left returns the left operand of And/Or, or the operand of Not.
func (e Expr) Left() Expr {
	if e.left == nil {
		return All()
	}
	return *e.left
}

// Right returns the right operand of And/Or.
func (e Expr) Right() Expr {
	if e.right == nil {
		return All()
	}
	return *e.right
}

// Document is the read view Eval needs from an indexed record.
type Document interface {
	Values(field string) []string
	Number(field string) (float64, bool)
}

// Eval reports whether doc satisfies e. Evaluation has no side effects and
// short-circuits.
func (e Expr) Eval(doc Document) bool {
	switch e.kind {
	case KindAll:
		return true
	case KindEquals:
		for _, v := range doc.Values(e.field) {
			if v == e.value {
				return true
			}
		}
		return false
	case KindRange:
		n, ok := doc.Number(e.field)
		if !ok {
			return false
		}
		return e.lower.admitsAbove(n) && e.upper.admitsBelow(n)
	case KindExists:
		if _, ok := doc.Number(e.field); ok {
			return true
		}
		return len(doc.Values(e.field)) > 0
	case KindAnd:
		return e.left.Eval(doc) && e.right.Eval(doc)
	case KindOr:
		return e.left.Eval(doc) || e.right.Eval(doc)
	case KindNot:
		return !e.left.Eval(doc)
	default:
		return false
	}
}

func (b *Bound) admitsAbove(n float64) bool {
	if b == nil {
		return true
	}
	if b.inclusive {
		return n >= b.value
	}
	return n > b.value
}

func (b *Bound) admitsBelow(n float64) bool {
	if b == nil {
		return true
	}
	if b.inclusive {
		return n <= b.value
	}
	return n < b.value
}

// String renders a human-readable form for logs and tests.
func (e Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e Expr) write(sb *strings.Builder) {
	switch e.kind {
	case KindAll:
		sb.WriteString("*")
	case KindEquals:
		sb.WriteString(e.field + "=" + e.value)
	case KindExists:
		sb.WriteString("exists(" + e.field + ")")
	case KindRange:
		sb.WriteString(e.field + " in ")
		if e.lower == nil {
			sb.WriteString("(-inf")
		} else {
			if e.lower.inclusive {
				sb.WriteString("[")
			} else {
				sb.WriteString("(")
			}
			sb.WriteString(formatFloat(e.lower.value))
		}
		sb.WriteString(", ")
		if e.upper == nil {
			sb.WriteString("+inf)")
		} else {
			sb.WriteString(formatFloat(e.upper.value))
			if e.upper.inclusive {
				sb.WriteString("]")
			} else {
				sb.WriteString(")")
			}
		}
	case KindAnd, KindOr:
		op := " AND "
		if e.kind == KindOr {
			op = " OR "
		}
		sb.WriteString("(")
		e.left.write(sb)
		sb.WriteString(op)
		e.right.write(sb)
		sb.WriteString(")")
	case KindNot:
		sb.WriteString("NOT ")
		e.left.write(sb)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Fields is a simple in-memory Document.
type Fields struct {
	Tags    map[string][]string
	Numbers map[string]float64
}

// Values implements Document.
func (f Fields) Values(field string) []string { return f.Tags[field] }

// Number implements Document.
func (f Fields) Number(field string) (float64, bool) {
	n, ok := f.Numbers[field]
	return n, ok
}
