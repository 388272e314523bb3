package filter

import (
	"strings"

	"github.com/westhule/combatcap/record"
)

type SkillExcludeFilter struct {
	exclude string
}

func NewSkillExcludeFilter(exclude string) *SkillExcludeFilter {
	var f SkillExcludeFilter
	f.exclude = exclude
	return &f
}

// Filter :If ok is true, it means that the record can pass
func (f *SkillExcludeFilter) Filter(rec *record.Record) (*record.Record, bool) {
	if strings.Contains(rec.SkillName, f.exclude) {
		return nil, false
	}
	return rec, true
}
