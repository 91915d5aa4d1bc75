package gazette

// ChangeSet classifies today's extracted items against a baseline set.
// It is computed fresh each run and never persisted directly; only its
// counts survive via the execution log.
type ChangeSet struct {
	// NewItems are today's items whose normalized title is absent from
	// the baseline.
	NewItems []Item

	// RemovedItems are baseline items whose normalized title is absent
	// from today's list.
	RemovedItems []Item

	// TotalToday and TotalBaseline are the input list sizes.
	TotalToday    int
	TotalBaseline int
}

// HasChanges reports whether the comparison found any additions or
// removals.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.NewItems) > 0 || len(cs.RemovedItems) > 0
}

// Compare classifies today's items against a baseline by normalized
// title set membership.
//
// Known limitation: because comparison is set-based on the normalized
// title, two items with identical normalized titles within the same list
// collapse to one comparison entry. This is acceptable only while title
// collisions within a single day remain rare.
func Compare(today, baseline []Item) *ChangeSet {
	todayTitles := make(map[string]struct{}, len(today))
	for _, it := range today {
		todayTitles[Normalize(it.Title)] = struct{}{}
	}
	baselineTitles := make(map[string]struct{}, len(baseline))
	for _, it := range baseline {
		baselineTitles[Normalize(it.Title)] = struct{}{}
	}

	cs := &ChangeSet{
		TotalToday:    len(today),
		TotalBaseline: len(baseline),
	}
	for _, it := range today {
		if _, ok := baselineTitles[Normalize(it.Title)]; !ok {
			cs.NewItems = append(cs.NewItems, it)
		}
	}
	for _, it := range baseline {
		if _, ok := todayTitles[Normalize(it.Title)]; !ok {
			cs.RemovedItems = append(cs.RemovedItems, it)
		}
	}
	return cs
}
