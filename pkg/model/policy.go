package model

import "sort"

// Policy selects which of a model's available versions get staged.
//
// The zero value selects every available version. Setting Latest keeps only
// the N highest version numbers; setting Versions keeps only the listed
// versions that are actually available. Latest takes precedence when both
// are set.
type Policy struct {
	// Latest keeps the N highest available versions. 0 disables the rule.
	Latest int

	// Versions keeps exactly these versions, skipping ones not available.
	Versions []Version
}

// Select applies the policy to the available versions. The input is not
// modified; the result is sorted ascending.
func (p Policy) Select(available []Version) []Version {
	sorted := append([]Version(nil), available...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	switch {
	case p.Latest > 0:
		if len(sorted) > p.Latest {
			sorted = sorted[len(sorted)-p.Latest:]
		}
		return sorted
	case len(p.Versions) > 0:
		availableSet := make(map[Version]struct{}, len(sorted))
		for _, v := range sorted {
			availableSet[v] = struct{}{}
		}
		var selected []Version
		for _, v := range p.Versions {
			if _, ok := availableSet[v]; ok {
				selected = append(selected, v)
			}
		}
		sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
		return selected
	default:
		return sorted
	}
}
