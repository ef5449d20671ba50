// Package query builds parameterized PostgreSQL SELECT statements from a
// projection of view field names onto qualified columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps view field names to alias-qualified columns across a
// base table and any joined tables.
type ProjectionMap struct {
	from       string
	joins      []string
	alias      string
	columns    map[string]string
	columnList []string
}

// NewProjectionMap starts a projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		from:    fmt.Sprintf("%s.%s %s", schema, table, alias),
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column, qualified with the most recently added table alias,
// to viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[viewName] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// Join adds a joined table. Subsequent Project calls qualify with its alias.
// kind is the join keyword, e.g. "LEFT JOIN".
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, fmt.Sprintf("%s %s.%s %s ON %s", kind, schema, table, alias, on))
	p.alias = alias
	return p
}

// From returns the FROM clause body including joins.
func (p *ProjectionMap) From() string {
	if len(p.joins) == 0 {
		return p.from
	}
	return p.from + " " + strings.Join(p.joins, " ")
}

// Lookup returns the qualified column for viewName.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	col, ok := p.columns[viewName]
	return col, ok
}

// Column returns the qualified column for viewName and panics when it is not
// projected. Filter field names are fixed in code, so a miss is a bug.
func (p *ProjectionMap) Column(viewName string) string {
	col, ok := p.columns[viewName]
	if !ok {
		panic(fmt.Sprintf("query: field %q is not projected", viewName))
	}
	return col
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}
