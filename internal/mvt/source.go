package mvt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/streetmap-tiles/internal/pkg/sqlbuild"
)

// ColumnKind classifies a column of a Schema.
type ColumnKind int

const (
	ColumnPlain ColumnKind = iota
	ColumnGeometry
	ColumnPrimaryKey
)

// Column describes one column. SRID is set for geometry columns only;
// zero means the column has no declared SRID.
type Column struct {
	Name string
	Kind ColumnKind
	SRID int
}

// Schema describes the columns of a table or sub-query in declaration order.
type Schema struct {
	Namespace string
	Table     string
	Columns   []Column
}

// Column returns the column with the given name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s Schema) first(kind ColumnKind) (Column, bool) {
	for _, c := range s.Columns {
		if c.Kind == kind {
			return c, true
		}
	}
	return Column{}, false
}

// Queryset is a compiled SELECT used as a layer source. SQL may use $n or
// ? placeholders; Args holds their values in order.
type Queryset struct {
	SQL    string
	Args   []any
	Schema Schema
}

type options struct {
	field         string
	pk            string
	layer         string
	attributes    []string
	attributesSet bool
	calculated    []CalculatedAttribute
	filters       []sqlbuild.Node
	minZoom       *int
	maxZoom       *int
	centroid      bool
	envelope      EnvelopeMode
}

// Option customizes FromModel and FromQueryset.
type Option func(*options)

// WithField overrides the geometry column.
func WithField(name string) Option {
	return func(o *options) { o.field = name }
}

// WithPK overrides the feature id column.
func WithPK(name string) Option {
	return func(o *options) { o.pk = name }
}

// WithLayer sets the layer name.
func WithLayer(name string) Option {
	return func(o *options) { o.layer = name }
}

// WithAttributes replaces the derived attribute list. Calling it with no
// names yields a layer without plain attributes.
func WithAttributes(names ...string) Option {
	return func(o *options) {
		o.attributes = names
		o.attributesSet = true
	}
}

// WithCalculatedAttribute appends a computed property.
func WithCalculatedAttribute(name string, expr sqlbuild.Node) Option {
	return func(o *options) {
		o.calculated = append(o.calculated, CalculatedAttribute{Name: name, Expr: expr})
	}
}

// WithFilters appends WHERE conditions.
func WithFilters(filters ...sqlbuild.Node) Option {
	return func(o *options) { o.filters = append(o.filters, filters...) }
}

func WithMinZoom(z int) Option {
	return func(o *options) { o.minZoom = &z }
}

func WithMaxZoom(z int) Option {
	return func(o *options) { o.maxZoom = &z }
}

// WithCentroid renders each feature as its centroid.
func WithCentroid() Option {
	return func(o *options) { o.centroid = true }
}

func WithEnvelope(mode EnvelopeMode) Option {
	return func(o *options) { o.envelope = mode }
}

// FromModel derives a query from a table schema: the first geometry column,
// the first primary key column, and every other column as an attribute.
// The layer is named after the table unless WithLayer is given.
func FromModel(schema Schema, opts ...Option) (Query, error) {
	q, err := fromSchema(schema, applyOptions(opts))
	if err != nil {
		return Query{}, err
	}
	q.Namespace = schema.Namespace
	q.Table = schema.Table
	return q, nil
}

// FromQueryset derives a query the same way as FromModel and uses the
// queryset as a sub-select source. Its placeholders become named params
// qs_1, qs_2, ... so they never collide with tile params.
func FromQueryset(qs Queryset, opts ...Option) (Query, error) {
	o := applyOptions(opts)
	q, err := fromSchema(qs.Schema, o)
	if err != nil {
		return Query{}, err
	}

	if strings.TrimSpace(qs.SQL) == "" {
		return Query{}, configError(q.LayerName(), ErrMissingSource)
	}

	source, params, err := compileQueryset(qs.SQL, qs.Args)
	if err != nil {
		return Query{}, configError(q.LayerName(), err)
	}
	q.Source = source
	q.SourceParams = params
	return q, nil
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func fromSchema(schema Schema, o *options) (Query, error) {
	layer := o.layer
	if layer == "" {
		layer = schema.Table
	}
	if layer == "" {
		layer = DefaultLayer
	}

	geom, ok := schema.first(ColumnGeometry)
	if o.field != "" {
		geom, ok = schema.Column(o.field)
		ok = ok && geom.Kind == ColumnGeometry
	}
	if !ok {
		return Query{}, configError(layer, ErrNoGeometryColumn)
	}

	pk, ok := schema.first(ColumnPrimaryKey)
	if o.pk != "" {
		pk, ok = schema.Column(o.pk)
	}
	if !ok {
		return Query{}, configError(layer, ErrNoPrimaryKey)
	}

	attributes := o.attributes
	if !o.attributesSet {
		attributes = make([]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			if c.Kind == ColumnPlain && c.Name != pk.Name {
				attributes = append(attributes, c.Name)
			}
		}
	}

	return Query{
		Attributes:           attributes,
		CalculatedAttributes: o.calculated,
		Filters:              o.filters,
		Field:                geom.Name,
		PK:                   pk.Name,
		Layer:                layer,
		Transform:            geom.SRID != 0 && geom.SRID != WebMercatorSRID,
		Centroid:             o.centroid,
		MinRenderZoom:        o.minZoom,
		MaxRenderZoom:        o.maxZoom,
		Envelope:             o.envelope,
	}, nil
}

var (
	byteaCast         = regexp.MustCompile(`(?i)::bytea\b`)
	dollarPlaceholder = regexp.MustCompile(`\$[0-9]`)
)

// segment is a run of queryset text that is either entirely inside a
// quoted literal or identifier, or entirely outside one.
type segment struct {
	text   string
	quoted bool
}

func splitQuoted(text string) []segment {
	var (
		segs  []segment
		start int
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				segs = append(segs, segment{text: text[start : i+1], quoted: true})
				start = i + 1
				quote = 0
			}
		case c == '\'' || c == '"':
			if start < i {
				segs = append(segs, segment{text: text[start:i]})
			}
			start = i
			quote = c
		}
	}
	if start < len(text) {
		segs = append(segs, segment{text: text[start:], quoted: quote != 0})
	}
	return segs
}

// compileQueryset turns compiled SQL into raw text interleaved with named
// params. Casts and placeholders inside quoted literals and identifiers are
// left alone. "?" placeholders are numbered in order unless the text already
// uses "$n".
func compileQueryset(text string, args []any) (sqlbuild.Node, map[string]any, error) {
	segs := splitQuoted(text)

	positional := false
	for i := range segs {
		if segs[i].quoted {
			continue
		}
		segs[i].text = byteaCast.ReplaceAllString(segs[i].text, "")
		positional = positional || dollarPlaceholder.MatchString(segs[i].text)
	}

	var (
		out    sqlbuild.Composed
		params = make(map[string]any)
		next   int
	)
	param := func(n int) error {
		if n < 1 || n > len(args) {
			return fmt.Errorf("%w: $%d with %d args", ErrQuerysetArgs, n, len(args))
		}
		name := "qs_" + strconv.Itoa(n)
		params[name] = args[n-1]
		out = append(out, sqlbuild.Param(name))
		return nil
	}

	for _, seg := range segs {
		if seg.quoted {
			out = append(out, sqlbuild.Raw(seg.text))
			continue
		}

		text, start := seg.text, 0
		for i := 0; i < len(text); i++ {
			var (
				n   int
				end int
			)
			switch {
			case positional && text[i] == '$' && i+1 < len(text) && isDigit(text[i+1]):
				end = i + 1
				for end < len(text) && isDigit(text[end]) {
					end++
				}
				n, _ = strconv.Atoi(text[i+1 : end])
			case !positional && text[i] == '?':
				next++
				n, end = next, i+1
			default:
				continue
			}

			if start < i {
				out = append(out, sqlbuild.Raw(text[start:i]))
			}
			if err := param(n); err != nil {
				return nil, nil, err
			}
			start = end
			i = end - 1
		}
		if start < len(text) {
			out = append(out, sqlbuild.Raw(text[start:]))
		}
	}
	return out, params, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
