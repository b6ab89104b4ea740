package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kysclient/IMBA/internal/lib/pagination"
)

// listQuery builds the filtered SELECT of a list endpoint together with the COUNT that
// shares its predicate.
type listQuery struct {
	columns string
	from    string
	orderBy string
	conds   []string
	args    []any
}

func newListQuery(columns, from, orderBy string) *listQuery {
	return &listQuery{columns: columns, from: from, orderBy: orderBy}
}

// where adds a condition. Every "?" in cond is bound to the next argument.
func (q *listQuery) where(cond string, args ...any) *listQuery {
	for _, arg := range args {
		q.args = append(q.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(q.args)), 1)
	}

	q.conds = append(q.conds, cond)

	return q
}

// search adds a case-insensitive substring match over columns. An empty term is a no-op.
func (q *listQuery) search(term string, columns ...string) *listQuery {
	if term == "" || len(columns) == 0 {
		return q
	}

	q.args = append(q.args, "%"+escapeLike(term)+"%")
	placeholder := fmt.Sprintf("$%d", len(q.args))

	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE " + placeholder
	}

	q.conds = append(q.conds, "("+strings.Join(parts, " OR ")+")")

	return q
}

func (q *listQuery) whereClause() string {
	if len(q.conds) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(q.conds, " AND ")
}

func (q *listQuery) selectSQL(page pagination.Page) (string, []any) {
	args := append([]any{}, q.args...)
	args = append(args, page.Limit(), page.Offset())

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		q.columns, q.from, q.whereClause(), q.orderBy, len(args)-1, len(args))

	return query, args
}

func (q *listQuery) allSQL() (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		q.columns, q.from, q.whereClause(), q.orderBy)

	return query, q.args
}

func (q *listQuery) countSQL() (string, []any) {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.from, q.whereClause()), q.args
}

// listPage runs the page query and the count query of q.
func listPage[T any](
	ctx context.Context,
	db DBTX,
	q *listQuery,
	page pagination.Page,
	scan func(scanner) (T, error),
) ([]T, int64, error) {
	query, args := q.selectSQL(page)

	items, err := collect(ctx, db, query, args, scan)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs := q.countSQL()

	var total int64
	if err := db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func collect[T any](
	ctx context.Context,
	db DBTX,
	query string,
	args []any,
	scan func(scanner) (T, error),
) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// affectedOne maps a zero-row UPDATE/DELETE to sql.ErrNoRows.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
