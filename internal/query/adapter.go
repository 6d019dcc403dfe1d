package query

// BuilderFunc customizes a builder that was pre-seeded with the defaults.
type BuilderFunc func(b *Builder)

// Query is a logical query: either raw text or a builder callback.
type Query struct {
	text    string
	builder BuilderFunc
}

// Text returns a raw text query. The caller owns the whole query; no defaults are applied.
func Text(text string) Query {
	return Query{text: text}
}

// Func returns a builder query. fn runs after the defaults are applied and may override them.
func Func(fn BuilderFunc) Query {
	return Query{builder: fn}
}

// IsBuilder reports whether q was created with Func.
func (q Query) IsBuilder() bool {
	return q.builder != nil
}

// String returns the raw text, or a placeholder for builder queries.
func (q Query) String() string {
	if q.builder != nil {
		return "<builder>"
	}
	return q.text
}

// Defaults are applied to builder queries before the callback runs.
type Defaults struct {
	SelectProperties []string
	Refiners         string
}

// Page positions a fetch within the result set.
type Page struct {
	RowLimit int
	StartRow int
}

// Build turns q into a descriptor, then appends pagination and one filter per refinement.
func Build(q Query, defaults Defaults, page Page, refinementFilters []string) *Descriptor {
	var d *Descriptor
	if q.builder == nil {
		d = NewBuilder().Text(q.text).Descriptor()
	} else {
		b := NewBuilder()
		if len(defaults.SelectProperties) > 0 {
			b.Select(defaults.SelectProperties...)
		}
		if defaults.Refiners != "" {
			b.Refiners(defaults.Refiners)
		}
		q.builder(b)
		d = b.Descriptor()
	}

	d.RowLimit = page.RowLimit
	if page.StartRow > 0 {
		d.StartRow = page.StartRow
	}
	if len(refinementFilters) > 0 {
		d.RefinementFilters = append(d.RefinementFilters, refinementFilters...)
	}
	return d
}
