package executor

import (
	"github.com/fowlerlee/geeqodb/pkg/sqlparser"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// matchPredicate evaluates one WHERE-clause predicate against a single
// column value. It mirrors pkg/query.ScanCondition's operator dispatch but
// over types.Value rather than types.Comparable, since row data carries
// typed, possibly-text values and ScanCondition only orders the integer
// keys an index stores.
func matchPredicate(pred sqlparser.Predicate, val types.Value) bool {
	switch pred.Op {
	case sqlparser.OpEq:
		return len(pred.Values) > 0 && val.Equal(pred.Values[0])
	case sqlparser.OpNeq:
		return len(pred.Values) > 0 && !val.Equal(pred.Values[0])
	case sqlparser.OpLt:
		cmp, ok := val.Compare(pred.Values[0])
		return ok && cmp < 0
	case sqlparser.OpLte:
		cmp, ok := val.Compare(pred.Values[0])
		return ok && cmp <= 0
	case sqlparser.OpGt:
		cmp, ok := val.Compare(pred.Values[0])
		return ok && cmp > 0
	case sqlparser.OpGte:
		cmp, ok := val.Compare(pred.Values[0])
		return ok && cmp >= 0
	case sqlparser.OpBetween:
		if len(pred.Values) < 2 {
			return false
		}
		lo, ok1 := val.Compare(pred.Values[0])
		hi, ok2 := val.Compare(pred.Values[1])
		return ok1 && ok2 && lo >= 0 && hi <= 0
	case sqlparser.OpIn:
		for _, v := range pred.Values {
			if val.Equal(v) {
				return true
			}
		}
		return false
	case sqlparser.OpLike:
		if len(pred.Values) == 0 || val.Tag() != types.TagText || pred.Values[0].Tag() != types.TagText {
			return false
		}
		return likeMatch(val.Text(), pred.Values[0].Text())
	default:
		return false
	}
}

// likeMatch implements SQL LIKE's two wildcards: % matches any run of
// characters (including none), _ matches exactly one.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	if pattern[0] == '%' {
		if likeMatchRunes(s, pattern[1:]) {
			return true
		}
		for len(s) > 0 {
			s = s[1:]
			if likeMatchRunes(s, pattern[1:]) {
				return true
			}
		}
		return false
	}
	if len(s) == 0 {
		return false
	}
	if pattern[0] == '_' || pattern[0] == s[0] {
		return likeMatchRunes(s[1:], pattern[1:])
	}
	return false
}
