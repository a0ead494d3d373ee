package query

import (
	"fmt"
	"strings"
)

var columns = map[Field]string{
	FieldAddress:     "address",
	FieldDescription: "description",
	FieldPrice:       "price",
	FieldSize:        "size",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ToSQL renders p as a SQL boolean expression. Placeholders are numbered from
// startArg and every operand is returned in args; no operand text ever ends
// up in the SQL string. The empty predicate renders as TRUE.
func ToSQL(p Predicate, startArg int) (string, []any) {
	b := &sqlBuilder{next: startArg}
	return b.render(p), b.args
}

type sqlBuilder struct {
	args []any
	next int
}

func (b *sqlBuilder) placeholder(value any) string {
	b.args = append(b.args, value)
	ph := fmt.Sprintf("$%d", b.next)
	b.next++
	return ph
}

func (b *sqlBuilder) render(p Predicate) string {
	switch p.Kind {
	case 0:
		return "TRUE"
	case KindAnd, KindOr:
		if len(p.Children) == 0 {
			if p.Kind == KindAnd {
				return "TRUE"
			}
			return "FALSE"
		}
		op := " AND "
		if p.Kind == KindOr {
			op = " OR "
		}
		parts := make([]string, len(p.Children))
		for i, child := range p.Children {
			parts[i] = b.render(child)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, op) + ")"
	case KindContains:
		// Postgres treats backslash as the default LIKE escape character.
		return fmt.Sprintf("%s ILIKE %s", column(p.Field), b.placeholder("%"+likeEscaper.Replace(p.Text)+"%"))
	case KindBetween:
		col := column(p.Field)
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, b.placeholder(p.Min), b.placeholder(p.Max))
	default:
		return "FALSE"
	}
}

func column(f Field) string {
	if col, ok := columns[f]; ok {
		return col
	}
	// Unknown fields never reach SQL text.
	panic(fmt.Sprintf("query: unknown field %q", f))
}
