// Package sqlbuild composes PostgreSQL statements from typed fragments.
//
// Identifiers and literals are kept as values until Render, which quotes
// every identifier and escapes every literal exactly once and numbers named
// parameters into positional placeholders ($1, $2, ...).
package sqlbuild

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

var (
	ErrMissingParam       = errors.New("sqlbuild: missing parameter")
	ErrUnknownPlaceholder = errors.New("sqlbuild: unknown placeholder")
	ErrEmptyIdentifier    = errors.New("sqlbuild: empty identifier")
	ErrUnsupportedLiteral = errors.New("sqlbuild: unsupported literal type")
)

// Node is a fragment of a SQL statement.
type Node interface {
	render(r *renderer) error
}

// Statement is rendered SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Raw is trusted SQL text emitted verbatim.
type Raw string

func (n Raw) render(r *renderer) error {
	r.buf.WriteString(string(n))
	return nil
}

// Identifier is a possibly schema-qualified name. Each part is quoted
// separately on render, so "a.b" as a single part stays one identifier.
type Identifier []string

// Ident builds an Identifier from its parts.
func Ident(parts ...string) Identifier {
	return Identifier(parts)
}

func (n Identifier) render(r *renderer) error {
	if len(n) == 0 {
		return ErrEmptyIdentifier
	}
	for _, part := range n {
		if part == "" {
			return ErrEmptyIdentifier
		}
	}
	r.buf.WriteString(pgx.Identifier(n).Sanitize())
	return nil
}

// Literal is a constant value inlined into the statement.
type Literal struct {
	Value any
}

// Lit wraps v as a Literal.
func Lit(v any) Literal {
	return Literal{Value: v}
}

func (n Literal) render(r *renderer) error {
	s, err := quoteLiteral(n.Value)
	if err != nil {
		return err
	}
	r.buf.WriteString(s)
	return nil
}

func quoteLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return pq.QuoteLiteral(val), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", fmt.Errorf("%w: non-finite float %v", ErrUnsupportedLiteral, val)
		}
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = pq.QuoteLiteral(s)
		}
		return "ARRAY[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
	}
}

// Param is a named bind parameter. Repeated names share one placeholder.
type Param string

func (n Param) render(r *renderer) error {
	name := string(n)
	idx, ok := r.index[name]
	if !ok {
		v, found := r.params[name]
		if !found {
			return fmt.Errorf("%w: %q", ErrMissingParam, name)
		}
		r.args = append(r.args, v)
		idx = len(r.args)
		r.index[name] = idx
	}
	r.buf.WriteByte('$')
	r.buf.WriteString(strconv.Itoa(idx))
	return nil
}

// Composed is a sequence of nodes rendered back to back.
type Composed []Node

func (n Composed) render(r *renderer) error {
	for _, child := range n {
		if child == nil {
			continue
		}
		if err := child.render(r); err != nil {
			return err
		}
	}
	return nil
}

// Join renders nodes separated by sep. Nil nodes are skipped.
func Join(sep string, nodes ...Node) Composed {
	out := make(Composed, 0, len(nodes)*2)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if len(out) > 0 {
			out = append(out, Raw(sep))
		}
		out = append(out, n)
	}
	return out
}

// Args maps template placeholder names to nodes.
type Args map[string]Node

type unknownPlaceholder string

func (n unknownPlaceholder) render(*renderer) error {
	return fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, string(n))
}

// Format splits tmpl on {name} placeholders and substitutes the matching
// node from args. Braces that do not enclose a valid name are kept as text.
// A placeholder with no entry in args fails at Render time.
func Format(tmpl string, args Args) Composed {
	var out Composed
	start := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			continue
		}
		end := strings.IndexByte(tmpl[i+1:], '}')
		if end < 0 {
			break
		}
		name := tmpl[i+1 : i+1+end]
		if !isName(name) {
			continue
		}
		if start < i {
			out = append(out, Raw(tmpl[start:i]))
		}
		if node, ok := args[name]; ok {
			out = append(out, node)
		} else {
			out = append(out, unknownPlaceholder(name))
		}
		i += end + 1
		start = i + 1
	}
	if start < len(tmpl) {
		out = append(out, Raw(tmpl[start:]))
	}
	return out
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

type renderer struct {
	buf    strings.Builder
	params map[string]any
	index  map[string]int
	args   []any
}

// Render walks the tree once and returns the statement text with params
// replaced by $n placeholders in order of first appearance.
func Render(n Node, params map[string]any) (Statement, error) {
	r := &renderer{
		params: params,
		index:  make(map[string]int),
	}
	if err := n.render(r); err != nil {
		return Statement{}, err
	}
	return Statement{SQL: r.buf.String(), Args: r.args}, nil
}
