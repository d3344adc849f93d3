package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/swiftbase/swiftbase/internal/apperr"
)

// Built is a parameterized SQL fragment ready for execution.
type Built struct {
	SQL  string
	Args []any
}

// jsonPath turns a dot-separated field path into a SQLite json_extract
// path expression, e.g. "profile.name" -> "$.profile.name".
func jsonPath(field string) string {
	return "$." + field
}

// extract returns the SQL expression reading field out of the data
// column, e.g. json_extract(data, '$.profile.name').
func extract(field string) string {
	return fmt.Sprintf("json_extract(data, '%s')", jsonPath(field))
}

// BuildWhere lowers a Condition tree into a SQL boolean expression with
// positional (?) placeholders and the matching argument list. A nil
// condition lowers to "1=1".
func BuildWhere(cond *Condition) (string, []any, error) {
	if cond == nil {
		return "1=1", nil, nil
	}
	return lowerCondition(cond)
}

func lowerCondition(c *Condition) (string, []any, error) {
	if c.Logical != "" {
		return lowerLogical(c)
	}
	return lowerLeaf(c)
}

func lowerLogical(c *Condition) (string, []any, error) {
	switch c.Logical {
	case opAnd, opOr:
		if len(c.Children) == 0 {
			return "1=1", nil, nil
		}
		var parts []string
		var args []any
		for _, child := range c.Children {
			sql, childArgs, err := lowerCondition(child)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+sql+")")
			args = append(args, childArgs...)
		}
		joiner := " AND "
		if c.Logical == opOr {
			joiner = " OR "
		}
		return strings.Join(parts, joiner), args, nil
	case opNot:
		if len(c.Children) != 1 {
			return "", nil, apperr.InvalidInput("$not requires exactly one condition")
		}
		sql, args, err := lowerCondition(c.Children[0])
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", args, nil
	default:
		return "", nil, apperr.InvalidInput("unknown logical operator " + string(c.Logical))
	}
}

func lowerLeaf(c *Condition) (string, []any, error) {
	path := extract(c.Field)

	switch c.Op {
	case OpEq:
		return path + " = ?", []any{coerce(c.Value)}, nil
	case OpNe:
		return "(" + path + " IS NULL OR " + path + " != ?)", []any{coerce(c.Value)}, nil
	case OpGt:
		return path + " > ?", []any{coerce(c.Value)}, nil
	case OpGte:
		return path + " >= ?", []any{coerce(c.Value)}, nil
	case OpLt:
		return path + " < ?", []any{coerce(c.Value)}, nil
	case OpLte:
		return path + " <= ?", []any{coerce(c.Value)}, nil
	case OpIn:
		return lowerInNotIn(path, c.Value, false)
	case OpNin:
		return lowerInNotIn(path, c.Value, true)
	case OpExists:
		want, ok := c.Value.(bool)
		if !ok {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$exists requires a boolean")
		}
		if want {
			return path + " IS NOT NULL", nil, nil
		}
		return path + " IS NULL", nil, nil
	case OpType:
		typeName, ok := c.Value.(string)
		if !ok {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$type requires a string")
		}
		sqliteType, err := sqliteTypeName(typeName)
		if err != nil {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, err.Error())
		}
		return fmt.Sprintf("typeof(%s) = ?", path), []any{sqliteType}, nil
	case OpSize:
		n, ok := toInt(c.Value)
		if !ok {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$size requires an integer")
		}
		return fmt.Sprintf("json_array_length(data, '%s') = ?", jsonPath(c.Field)), []any{n}, nil
	case OpAll:
		return lowerAll(c)
	case OpElemMatch:
		return lowerElemMatch(c)
	case OpRegex:
		pattern, ok := c.Value.(string)
		if !ok {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$regex requires a string")
		}
		return path + " LIKE ?", []any{regexToLike(pattern)}, nil
	case OpMod:
		pair, ok := c.Value.([]any)
		if !ok || len(pair) != 2 {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$mod requires a [divisor, remainder] pair")
		}
		divisor, ok1 := toInt(pair[0])
		remainder, ok2 := toInt(pair[1])
		if !ok1 || !ok2 {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$mod requires integer divisor and remainder")
		}
		return fmt.Sprintf("CAST(%s AS INTEGER) %% ? = ?", path), []any{divisor, remainder}, nil
	default:
		return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "unknown operator "+string(c.Op))
	}
}

func lowerInNotIn(path string, value any, negate bool) (string, []any, error) {
	list, ok := value.([]any)
	if !ok {
		return "", nil, apperr.InvalidInput("$in/$nin requires an array")
	}
	if len(list) == 0 {
		if negate {
			return "1=1", nil, nil
		}
		return "1=0", nil, nil
	}
	placeholders := make([]string, len(list))
	args := make([]any, len(list))
	for i, v := range list {
		placeholders[i] = "?"
		args[i] = coerce(v)
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", path, op, strings.Join(placeholders, ", ")), args, nil
}

// lowerAll matches array fields containing every element of the given
// list, via one EXISTS(json_each...) clause per element.
func lowerAll(c *Condition) (string, []any, error) {
	list, ok := c.Value.([]any)
	if !ok {
		return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$all requires an array")
	}
	var parts []string
	var args []any
	for _, v := range list {
		parts = append(parts, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(data, '%s') WHERE json_each.value = ?)",
			jsonPath(c.Field),
		))
		args = append(args, coerce(v))
	}
	return strings.Join(parts, " AND "), args, nil
}

// lowerElemMatch requires the field to be an array with at least one
// element satisfying the nested condition, evaluated against each
// array element's own json_each.value sub-path.
func lowerElemMatch(c *Condition) (string, []any, error) {
	subObj, ok := c.Value.(map[string]any)
	if !ok {
		return "", nil, apperr.WithField(apperr.KindInvalidInput, c.Field, "$elemMatch requires an object")
	}
	sub, err := parseObject(subObj)
	if err != nil {
		return "", nil, err
	}
	subSQL, subArgs, err := lowerElemCondition(sub)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM json_each(data, '%s') AS elem WHERE %s)",
		jsonPath(c.Field), subSQL,
	)
	return sql, subArgs, nil
}

// lowerElemCondition is like lowerCondition but reads fields off the
// json_each "elem" alias's value rather than the document root.
func lowerElemCondition(c *Condition) (string, []any, error) {
	if c.Logical != "" {
		var parts []string
		var args []any
		for _, child := range c.Children {
			sql, childArgs, err := lowerElemCondition(child)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+sql+")")
			args = append(args, childArgs...)
		}
		joiner := " AND "
		if c.Logical == opOr {
			joiner = " OR "
		}
		if c.Logical == opNot {
			return "NOT (" + parts[0] + ")", args, nil
		}
		return strings.Join(parts, joiner), args, nil
	}
	path := "elem.value"
	if c.Field != "" {
		path = fmt.Sprintf("json_extract(elem.value, '$.%s')", c.Field)
	}
	switch c.Op {
	case OpEq:
		return path + " = ?", []any{coerce(c.Value)}, nil
	case OpGt:
		return path + " > ?", []any{coerce(c.Value)}, nil
	case OpGte:
		return path + " >= ?", []any{coerce(c.Value)}, nil
	case OpLt:
		return path + " < ?", []any{coerce(c.Value)}, nil
	case OpLte:
		return path + " <= ?", []any{coerce(c.Value)}, nil
	default:
		return "", nil, apperr.InvalidInput("unsupported operator inside $elemMatch: " + string(c.Op))
	}
}

func sqliteTypeName(t string) (string, error) {
	switch t {
	case "string":
		return "text", nil
	case "number":
		return "real", nil
	case "integer":
		return "integer", nil
	case "boolean":
		return "integer", nil
	case "null":
		return "null", nil
	case "array", "object":
		return "text", nil
	default:
		return "", fmt.Errorf("unknown $type value %q", t)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

// coerce normalizes a decoded JSON value into the form comparable
// against json_extract's column affinity: booleans become 0/1 since
// SQLite has no boolean storage class and json_extract surfaces
// JSON true/false as integers.
func coerce(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// regexToLike approximates a $regex pattern as a SQL LIKE pattern: this
// is a documented compatibility approximation, not true regex support.
// Leading ^ and trailing $ anchors are stripped (LIKE already matches
// the whole string), ".*" becomes the LIKE many-wildcard "%", and any
// remaining "." becomes the LIKE single-wildcard "_".
func regexToLike(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "^")
	pattern = strings.TrimSuffix(pattern, "$")
	const sentinel = "\x00"
	pattern = strings.ReplaceAll(pattern, ".*", sentinel)
	pattern = strings.ReplaceAll(pattern, ".", "_")
	pattern = strings.ReplaceAll(pattern, sentinel, "%")
	return pattern
}

// BuildOrderBy lowers an orderBy map into an ORDER BY clause. Map
// iteration order is not guaranteed, so callers needing deterministic
// multi-key ordering should prefer a single key per request, matching
// the spec's documented best-effort tie-break.
func BuildOrderBy(orderBy map[string]string) (string, error) {
	if len(orderBy) == 0 {
		return "", nil
	}
	var parts []string
	for field, dir := range orderBy {
		if !IsValidFieldPath(field) {
			return "", apperr.WithField(apperr.KindInvalidInput, field, "field name contains unsafe characters")
		}
		sqlDir := "ASC"
		switch SortDir(strings.ToLower(dir)) {
		case SortAsc:
			sqlDir = "ASC"
		case SortDesc:
			sqlDir = "DESC"
		default:
			return "", apperr.WithField(apperr.KindInvalidInput, field, "orderBy direction must be asc or desc")
		}
		parts = append(parts, extract(field)+" "+sqlDir)
	}
	return strings.Join(parts, ", "), nil
}

// BuildSelect lowers a select list into a JSON object expression so the
// result row still carries a single `data` JSON column scoped to the
// requested fields, via json_object(field, json_extract(...), ...).
func BuildSelect(fields []string) (string, error) {
	if len(fields) == 0 {
		return "data", nil
	}
	var parts []string
	for _, f := range fields {
		if !IsValidFieldPath(f) {
			return "", apperr.WithField(apperr.KindInvalidInput, f, "field name contains unsafe characters")
		}
		parts = append(parts, fmt.Sprintf("'%s', %s", f, extract(f)))
	}
	return "json_object(" + strings.Join(parts, ", ") + ")", nil
}
