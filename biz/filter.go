package biz

import (
	"github.com/westhule/combatcap/config"
	"github.com/westhule/combatcap/filter"
)

func NewFilterChain(settings *config.AppSettings) (filter.Filter, error) {
	c := filter.NewFilterChain()

	if len(settings.ExcludeSkillContains) > 0 {
		c.AddExcludeFilters(filter.NewSkillExcludeFilter(settings.ExcludeSkillContains))
	}

	if len(settings.IncludeActorMatch) > 0 {
		f := filter.NewActorMatchIncludeFilter(settings.IncludeActorMatch)
		c.AddIncludeFilter(f)
	}
	return c, nil
}
