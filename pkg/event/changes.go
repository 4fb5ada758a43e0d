// Package event describes what changed between two versions of an entity
// for the events published about it.
package event

import (
	"reflect"
	"sort"
)

// ChangedKeys lists, sorted, every key added, removed or given a different
// value between before and after. Values are compared deeply and never
// returned, so events carry field names only.
func ChangedKeys(before, after map[string]interface{}) []string {
	var keys []string
	for k, nv := range after {
		ov, ok := before[k]
		if !ok || !reflect.DeepEqual(ov, nv) {
			keys = append(keys, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
