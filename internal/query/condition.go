package query

import (
	"regexp"

	"github.com/swiftbase/swiftbase/internal/apperr"
)

// Op is a where-clause operator drawn from the closed set the parser
// accepts; any other key under a field is rejected.
type Op string

const (
	OpEq        Op = "$eq"
	OpNe        Op = "$ne"
	OpGt        Op = "$gt"
	OpGte       Op = "$gte"
	OpLt        Op = "$lt"
	OpLte       Op = "$lte"
	OpIn        Op = "$in"
	OpNin       Op = "$nin"
	OpExists    Op = "$exists"
	OpType      Op = "$type"
	OpAll       Op = "$all"
	OpElemMatch Op = "$elemMatch"
	OpSize      Op = "$size"
	OpRegex     Op = "$regex"
	OpMod       Op = "$mod"

	opAnd Op = "$and"
	opOr  Op = "$or"
	opNot Op = "$not"
)

var comparisonOps = map[Op]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpIn: true, OpNin: true, OpExists: true, OpType: true,
	OpAll: true, OpElemMatch: true, OpSize: true, OpRegex: true, OpMod: true,
}

// safeFieldPath is the primary defense against identifier injection:
// alphanumerics, underscore, hyphen, and dot (for nesting) only.
var safeFieldPath = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.\-]*$`)

// Condition is a node in the lowered where-clause tree: either a leaf
// comparing one field against one operator/value, or a logical
// combinator over child conditions.
type Condition struct {
	Field    string
	Op       Op
	Value    any
	Logical  Op // opAnd, opOr, opNot when this is a combinator node
	Children []*Condition
}

func IsValidFieldPath(field string) bool {
	return safeFieldPath.MatchString(field)
}

// ParseWhere lowers a `where` object into a Condition tree. A bare where
// object is an implicit $and of its top-level keys.
func ParseWhere(where map[string]any) (*Condition, error) {
	if len(where) == 0 {
		return nil, nil
	}
	return parseObject(where)
}

func parseObject(obj map[string]any) (*Condition, error) {
	var children []*Condition

	for key, val := range obj {
		switch Op(key) {
		case opAnd, opOr:
			list, ok := val.([]any)
			if !ok {
				return nil, apperr.InvalidInput(string(key) + " must be an array")
			}
			var subChildren []*Condition
			for _, item := range list {
				itemObj, ok := item.(map[string]any)
				if !ok {
					return nil, apperr.InvalidInput(string(key) + " elements must be objects")
				}
				cond, err := parseObject(itemObj)
				if err != nil {
					return nil, err
				}
				subChildren = append(subChildren, cond)
			}
			children = append(children, &Condition{Logical: Op(key), Children: subChildren})
		case opNot:
			inner, ok := val.(map[string]any)
			if !ok {
				return nil, apperr.InvalidInput("$not must be an object")
			}
			cond, err := parseObject(inner)
			if err != nil {
				return nil, err
			}
			children = append(children, &Condition{Logical: opNot, Children: []*Condition{cond}})
		default:
			if !IsValidFieldPath(key) {
				return nil, apperr.WithField(apperr.KindInvalidInput, key, "field name contains unsafe characters")
			}
			fieldConds, err := parseFieldValue(key, val)
			if err != nil {
				return nil, err
			}
			children = append(children, fieldConds...)
		}
	}

	if len(children) == 1 && children[0].Logical == "" {
		return children[0], nil
	}
	return &Condition{Logical: opAnd, Children: children}, nil
}

// parseFieldValue handles `{field: value}` (implicit $eq) and
// `{field: {$op: value, ...}}` (explicit operators, conjoined).
func parseFieldValue(field string, val any) ([]*Condition, error) {
	opMap, ok := val.(map[string]any)
	if !ok {
		return []*Condition{{Field: field, Op: OpEq, Value: val}}, nil
	}

	// Distinguish an operator object ({"$gt": 5}) from a literal nested
	// object value (no key in opMap starts with "$").
	hasOperatorKey := false
	for k := range opMap {
		if len(k) > 0 && k[0] == '$' {
			hasOperatorKey = true
			break
		}
	}
	if !hasOperatorKey {
		return []*Condition{{Field: field, Op: OpEq, Value: val}}, nil
	}

	var conds []*Condition
	for k, v := range opMap {
		op := Op(k)
		if !comparisonOps[op] {
			return nil, apperr.WithField(apperr.KindInvalidInput, field, "unknown operator "+k)
		}
		conds = append(conds, &Condition{Field: field, Op: op, Value: v})
	}
	return conds, nil
}
