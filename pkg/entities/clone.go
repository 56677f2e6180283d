package entities

import (
	"maps"
	"slices"
	"time"
)

// Clone returns a deep copy of s: record slices, partner lists, attribute
// maps and time pointers are all duplicated.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s

	c.Properties = slices.Clone(s.Properties)
	for i := range c.Properties {
		p := &c.Properties[i]
		p.RegisteredAt = cloneTime(p.RegisteredAt)
		p.Attributes.Extra = maps.Clone(p.Attributes.Extra)
	}

	c.Companies = slices.Clone(s.Companies)
	for i := range c.Companies {
		co := &c.Companies[i]
		co.OpenDate = cloneTime(co.OpenDate)
		co.Partners = slices.Clone(co.Partners)
		co.Attributes.Extra = maps.Clone(co.Attributes.Extra)
	}

	c.Persons = slices.Clone(s.Persons)
	for i := range c.Persons {
		c.Persons[i].Attributes.Extra = maps.Clone(c.Persons[i].Attributes.Extra)
	}

	c.LegalQueries = slices.Clone(s.LegalQueries)

	c.LeaseContracts = slices.Clone(s.LeaseContracts)
	for i := range c.LeaseContracts {
		c.LeaseContracts[i].StartDate = cloneTime(c.LeaseContracts[i].StartDate)
	}

	c.Relations = slices.Clone(s.Relations)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
