package filter

import (
	"regexp"

	slog "github.com/vearne/simplelog"

	"github.com/westhule/combatcap/record"
)

type ActorMatchIncludeFilter struct {
	r *regexp.Regexp
}

func NewActorMatchIncludeFilter(expr string) *ActorMatchIncludeFilter {
	var f ActorMatchIncludeFilter
	var err error
	f.r, err = regexp.Compile(expr)
	if err != nil {
		slog.Fatal("expr error:%v", err)
	}
	return &f
}

// Filter :If ok is true, it means that the record can pass
func (f *ActorMatchIncludeFilter) Filter(rec *record.Record) (*record.Record, bool) {
	if f.r.MatchString(rec.UsedBy) {
		return rec, true
	}
	return nil, false
}
