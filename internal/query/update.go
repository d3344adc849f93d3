package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/swiftbase/swiftbase/internal/apperr"
)

// UpdateOp is an update operator drawn from the closed set the parser
// accepts for the `data` object of an update action.
type UpdateOp string

const (
	UpdateSet      UpdateOp = "$set"
	UpdateUnset    UpdateOp = "$unset"
	UpdateInc      UpdateOp = "$inc"
	UpdatePush     UpdateOp = "$push"
	UpdatePull     UpdateOp = "$pull"
	UpdateAddToSet UpdateOp = "$addToSet"
)

var updateOps = map[UpdateOp]bool{
	UpdateSet: true, UpdateUnset: true, UpdateInc: true,
	UpdatePush: true, UpdatePull: true, UpdateAddToSet: true,
}

// ParseUpdate lowers the `data` object of an update request into a
// normalized operator map. A data object with no top-level update
// operator key is treated as an implicit $set of all its keys.
func ParseUpdate(data map[string]any) (map[UpdateOp]map[string]any, error) {
	if len(data) == 0 {
		return nil, apperr.InvalidInput("update requires a non-empty data object")
	}

	hasOperatorKey := false
	for k := range data {
		if strings.HasPrefix(k, "$") {
			hasOperatorKey = true
			break
		}
	}
	if !hasOperatorKey {
		return map[UpdateOp]map[string]any{UpdateSet: data}, nil
	}

	result := make(map[UpdateOp]map[string]any)
	for k, v := range data {
		op := UpdateOp(k)
		if !updateOps[op] {
			return nil, apperr.InvalidInput("unknown update operator " + k)
		}
		fields, ok := v.(map[string]any)
		if !ok {
			return nil, apperr.WithField(apperr.KindInvalidInput, k, "must be an object of field: value pairs")
		}
		result[op] = fields
	}
	return result, nil
}

// BuildUpdate lowers a normalized update-operator map into a single SQL
// `data = ...` assignment expression plus its positional args. Operators
// are applied in a deterministic order so repeated calls against the
// same input are reproducible.
func BuildUpdate(ops map[UpdateOp]map[string]any) (string, []any, error) {
	expr := "data"
	var args []any

	order := []UpdateOp{UpdateSet, UpdateUnset, UpdateInc, UpdatePush, UpdateAddToSet, UpdatePull}
	for _, op := range order {
		fields, ok := ops[op]
		if !ok {
			continue
		}
		names := sortedKeys(fields)
		for _, field := range names {
			if !IsValidFieldPath(field) {
				return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "field name contains unsafe characters")
			}
			val := fields[field]
			var err error
			expr, args, err = applyOp(op, expr, args, field, val)
			if err != nil {
				return "", nil, err
			}
		}
	}

	return "data = " + expr, args, nil
}

func applyOp(op UpdateOp, expr string, args []any, field string, val any) (string, []any, error) {
	path := jsonPath(field)

	switch op {
	case UpdateSet:
		encoded, err := jsonEncode(val)
		if err != nil {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "value is not JSON-encodable")
		}
		return fmt.Sprintf("json_set(%s, '%s', json(?))", expr, path), append(args, encoded), nil

	case UpdateUnset:
		return fmt.Sprintf("json_remove(%s, '%s')", expr, path), args, nil

	case UpdateInc:
		n, ok := toFloat(val)
		if !ok {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "$inc requires a number")
		}
		return fmt.Sprintf(
			"json_set(%s, '%s', COALESCE(json_extract(%s, '%s'), 0) + ?)",
			expr, path, expr, path,
		), append(args, n), nil

	case UpdatePush:
		encoded, err := jsonEncode(val)
		if err != nil {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "value is not JSON-encodable")
		}
		return fmt.Sprintf(
			"json_set(%s, '%s', json_insert(COALESCE(json_extract(%s, '%s'), '[]'), '$[#]', json(?)))",
			expr, path, expr, path,
		), append(args, encoded), nil

	case UpdateAddToSet:
		encoded, err := jsonEncode(val)
		if err != nil {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "value is not JSON-encodable")
		}
		// Only append when no existing element already equals val, via a
		// CASE over an EXISTS(json_each) membership test.
		sql := fmt.Sprintf(`CASE WHEN EXISTS (
			SELECT 1 FROM json_each(COALESCE(json_extract(%s, '%s'), '[]')) WHERE json_each.value = json(?)
		) THEN %s ELSE json_set(%s, '%s', json_insert(COALESCE(json_extract(%s, '%s'), '[]'), '$[#]', json(?))) END`,
			expr, path, expr, expr, path, expr, path)
		return sql, append(args, encoded, encoded), nil

	case UpdatePull:
		sql, pullArgs, err := applyPull(expr, path, field, val)
		if err != nil {
			return "", nil, err
		}
		return sql, append(args, pullArgs...), nil

	default:
		return "", nil, apperr.InvalidInput("unsupported update operator " + string(op))
	}
}

// applyPull removes every array element equal to val (scalar) or
// matching every key/value pair in val (object filter) from the named
// array field. SQLite's JSON1 extension has no "remove by predicate"
// primitive, so this rebuilds the array from the elements that survive
// the filter via a correlated subquery over json_each, re-aggregated
// with json_group_array.
func applyPull(expr, path, field string, val any) (string, []any, error) {
	filterObj, isObj := val.(map[string]any)

	var predicate string
	var args []any
	if isObj {
		names := sortedKeys(filterObj)
		var parts []string
		for _, k := range names {
			if !IsValidFieldPath(k) {
				return "", nil, apperr.WithField(apperr.KindInvalidInput, k, "field name contains unsafe characters")
			}
			encoded, err := jsonEncode(filterObj[k])
			if err != nil {
				return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "$pull filter value is not JSON-encodable")
			}
			parts = append(parts, fmt.Sprintf("json_extract(je.value, '$.%s') = json(?)", k))
			args = append(args, encoded)
		}
		predicate = strings.Join(parts, " AND ")
	} else {
		encoded, err := jsonEncode(val)
		if err != nil {
			return "", nil, apperr.WithField(apperr.KindInvalidInput, field, "$pull value is not JSON-encodable")
		}
		predicate = "je.value = json(?)"
		args = append(args, encoded)
	}

	rebuild := fmt.Sprintf(`COALESCE(
		(SELECT json_group_array(je.value) FROM json_each(COALESCE(json_extract(%s, '%s'), '[]')) AS je
		 WHERE NOT (%s)),
		'[]'
	)`, expr, path, predicate)

	sql := fmt.Sprintf("json_set(%s, '%s', json(%s))", expr, path, rebuild)
	return sql, append([]any{}, args...), nil
}

func jsonEncode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
