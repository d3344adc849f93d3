package query

import (
	"github.com/swiftbase/swiftbase/internal/apperr"
)

// collectionNamePattern reuses the safe field-path rule, so collection
// names may also contain dots.
var collectionNamePattern = safeFieldPath

// Parsed is a fully validated, lowered Request ready for the SQL
// Builder: its where-clause is a Condition tree, its update data is a
// normalized operator map, and its limit/offset are resolved integers.
type Parsed struct {
	Action     Action
	Collection string
	Where      *Condition
	Select     []string
	OrderBy    map[string]string
	Limit      int
	Offset     int
	Distinct   []string
	Update     map[UpdateOp]map[string]any
	Create     map[string]any
	Custom     string
	Params     map[string]any
}

// Parse validates a Request end-to-end and lowers it into a Parsed
// value. Every rejection is an apperr.KindInvalidInput ("invalid-query").
func Parse(req Request) (*Parsed, error) {
	if !validActions[req.Action] {
		return nil, apperr.InvalidInput("unknown action " + string(req.Action))
	}

	if req.Action != ActionCustom {
		if req.Collection == "" {
			return nil, apperr.InvalidInput("collection is required")
		}
		if !collectionNamePattern.MatchString(req.Collection) {
			return nil, apperr.WithField(apperr.KindInvalidInput, "collection", "collection name contains unsafe characters")
		}
	}

	out := &Parsed{
		Action:     req.Action,
		Collection: req.Collection,
		Limit:      DefaultLimit,
	}

	if req.Query != nil {
		cond, err := ParseWhere(req.Query.Where)
		if err != nil {
			return nil, err
		}
		out.Where = cond

		for _, f := range req.Query.Select {
			if !IsValidFieldPath(f) {
				return nil, apperr.WithField(apperr.KindInvalidInput, f, "field name contains unsafe characters")
			}
		}
		out.Select = req.Query.Select

		for _, f := range req.Query.Distinct {
			if !IsValidFieldPath(f) {
				return nil, apperr.WithField(apperr.KindInvalidInput, f, "field name contains unsafe characters")
			}
		}
		out.Distinct = req.Query.Distinct

		for field, dir := range req.Query.OrderBy {
			if !IsValidFieldPath(field) {
				return nil, apperr.WithField(apperr.KindInvalidInput, field, "field name contains unsafe characters")
			}
			if SortDir(dir) != SortAsc && SortDir(dir) != SortDesc {
				return nil, apperr.WithField(apperr.KindInvalidInput, field, "orderBy direction must be asc or desc")
			}
		}
		out.OrderBy = req.Query.OrderBy

		if req.Query.Limit != nil {
			if *req.Query.Limit < MinLimit || *req.Query.Limit > MaxLimit {
				return nil, apperr.WithField(apperr.KindInvalidInput, "limit", "limit must be between 1 and 1000")
			}
			out.Limit = *req.Query.Limit
		}
		if req.Query.Offset != nil {
			if *req.Query.Offset < 0 {
				return nil, apperr.WithField(apperr.KindInvalidInput, "offset", "offset must be non-negative")
			}
			out.Offset = *req.Query.Offset
		}
	}

	switch req.Action {
	case ActionCreate:
		if len(req.Data) == 0 {
			return nil, apperr.InvalidInput("create requires a non-empty data object")
		}
		out.Create = req.Data
	case ActionUpdate:
		update, err := ParseUpdate(req.Data)
		if err != nil {
			return nil, err
		}
		out.Update = update
	case ActionCustom:
		if req.Custom == "" {
			return nil, apperr.InvalidInput("custom requires a query name")
		}
		out.Custom = req.Custom
		out.Params = req.Params
	}

	return out, nil
}
