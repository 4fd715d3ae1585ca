package collector

import (
	"fmt"
	"sort"
)

// taskStates are always exported, zero when the summary omits them.
var taskStates = []string{"paused", "running", "stopped", "planned"}

// mapTasks sums the foreman-tasks summary by state. The summary lists a
// state once per result (success, error, ...), so counts for a repeated
// state are added.
func mapTasks(b *batch, payloads []payload) error {
	counts := make(map[string]float64, len(taskStates))
	for _, p := range payloads {
		if !p.body.IsArray() {
			return fmt.Errorf("tasks %q: expected a JSON array, got %s", p.endpoint, p.body.Type)
		}
		for i, entry := range p.body.Array() {
			state := entry.Get("state")
			if !state.Exists() {
				return fmt.Errorf("tasks %q: entry %d has no state", p.endpoint, i)
			}
			counts[state.String()] += entry.Get("count").Float()
		}
	}

	for _, state := range taskStates {
		if _, ok := counts[state]; !ok {
			counts[state] = 0
		}
	}

	states := make([]string, 0, len(counts))
	for state := range counts {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		b.add(taskMetric, counts[state], state)
	}
	return nil
}
