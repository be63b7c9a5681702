package schedule

import (
	"reflect"

	"github.com/mitchellh/hashstructure/v2"
)

// Group drops errored entries and merges locations whose schedules are
// structurally equal. Groups appear in the order their first location was
// seen, and locations keep input order inside each group.
func Group(in []LocationSchedule) []LocationGroup {
	groups := []LocationGroup{}
	buckets := map[uint64][]int{}

	for _, ls := range in {
		if ls.Error != "" {
			continue
		}
		key, err := hashstructure.Hash(ls.Schedule, hashstructure.FormatV2, nil)
		if err != nil {
			// Equal schedules fail the same way, so bucket 0 still pairs them.
			key = 0
		}

		idx := -1
		for _, candidate := range buckets[key] {
			if reflect.DeepEqual(groups[candidate].Schedule, ls.Schedule) {
				idx = candidate
				break
			}
		}
		if idx >= 0 {
			groups[idx].Locations = append(groups[idx].Locations, ls.Location)
			continue
		}

		buckets[key] = append(buckets[key], len(groups))
		groups = append(groups, LocationGroup{
			Locations: []string{ls.Location},
			Schedule:  ls.Schedule,
		})
	}
	return groups
}
