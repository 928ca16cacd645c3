package db

import (
	"fmt"
	"strings"
)

// ListQuery builds the COUNT and page queries of a filtered list. Clauses use
// positional placeholders; Next returns the index of the next one.
type ListQuery struct {
	from    string
	cols    string
	where   []string
	args    []interface{}
	orderBy string
}

// NewListQuery starts a query selecting cols from the given FROM expression,
// which may include joins.
func NewListQuery(from, cols string) *ListQuery {
	return &ListQuery{from: from, cols: cols}
}

// Next returns the next placeholder index.
func (q *ListQuery) Next() int { return len(q.args) + 1 }

// Add appends a raw WHERE clause. Its placeholders must start at Next().
func (q *ListQuery) Add(clause string, args ...interface{}) {
	q.where = append(q.where, clause)
	q.args = append(q.args, args...)
}

// Eq adds "column = value".
func (q *ListQuery) Eq(column string, value interface{}) {
	q.Add(fmt.Sprintf("%s = $%d", column, q.Next()), value)
}

// Search adds a case-insensitive substring match of term against any of
// columns. An empty term adds nothing.
func (q *ListQuery) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	idx := q.Next()
	ors := make([]string, len(columns))
	for i, col := range columns {
		ors[i] = fmt.Sprintf("%s ILIKE $%d", col, idx)
	}
	q.Add("("+strings.Join(ors, " OR ")+")", "%"+EscapeLike(term)+"%")
}

// None makes the query match no rows.
func (q *ListQuery) None() {
	q.Add("FALSE")
}

// OrderBy sets the ORDER BY clause without the keyword.
func (q *ListQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

func (q *ListQuery) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// CountSQL returns the count query.
func (q *ListQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.from, q.whereSQL())
}

// CountArgs returns the arguments of the count query.
func (q *ListQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the page query with ORDER BY, LIMIT and OFFSET.
func (q *ListQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s%s", q.cols, q.from, q.whereSQL())
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	n := q.Next()
	return sql + fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
}

// DataArgs returns the page query arguments.
func (q *ListQuery) DataArgs(limit, offset int) []interface{} {
	out := make([]interface{}, len(q.args), len(q.args)+2)
	copy(out, q.args)
	return append(out, limit, offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so term matches literally.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
