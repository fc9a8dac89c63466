package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

// evalCondition interpolates cond.Source against ec.Vars and applies
// cond.Comparator, shared by KeyCheck, IfElse, and CaseSwitch — all three
// use the same comparator set per spec.md §4.C.
func evalCondition(ec *Context, cond block.Condition) bool {
	source := ec.Vars.Interpolate(cond.Source)
	value := ec.Vars.Interpolate(cond.Value)

	switch cond.Comparator {
	case block.CompContains:
		return strings.Contains(source, value)
	case block.CompNotContains:
		return !strings.Contains(source, value)
	case block.CompEqualTo:
		return source == value
	case block.CompNotEqualTo:
		return source != value
	case block.CompMatchRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return false
		}
		return re.MatchString(source)
	case block.CompGreaterThan:
		a, errA := strconv.ParseFloat(source, 64)
		b, errB := strconv.ParseFloat(value, 64)
		return errA == nil && errB == nil && a > b
	case block.CompLessThan:
		a, errA := strconv.ParseFloat(source, 64)
		b, errB := strconv.ParseFloat(value, 64)
		return errA == nil && errB == nil && a < b
	case block.CompExists:
		_, ok := ec.Vars.Get(varName(cond.Source))
		return ok
	case block.CompNotExists:
		_, ok := ec.Vars.Get(varName(cond.Source))
		return !ok
	default:
		return false
	}
}

// varName strips a single "<name>" wrapper so Exists/NotExists can check
// binding presence directly instead of through interpolation (which would
// otherwise hide "unbound" by leaving the literal "<name>" text in place).
func varName(source string) string {
	if strings.HasPrefix(source, "<") && strings.HasSuffix(source, ">") && strings.Count(source, "<") == 1 {
		return source[1 : len(source)-1]
	}
	return source
}

// anyConditionMatches implements a Keychain's OR-combine: any true condition
// fires the keychain.
func anyConditionMatches(ec *Context, conds []block.Condition) bool {
	for _, c := range conds {
		if evalCondition(ec, c) {
			return true
		}
	}
	return false
}
