package collector

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

const enabledSuffix = "_enabled"

// mapDashboard turns the host inventory dashboard into host status gauges.
//
// Keys look like "bad_hosts" or "bad_hosts_enabled". The suffix becomes the
// enabled label for gauges that carry it; gauges without labels take the
// value as is. Keys that name no dashboard gauge are ignored.
func mapDashboard(b *batch, payloads []payload) error {
	for _, p := range payloads {
		if !p.body.IsObject() {
			return fmt.Errorf("dashboard %q: expected a JSON object, got %s", p.endpoint, p.body.Type)
		}
		p.body.ForEach(func(key, value gjson.Result) bool {
			status, enabled := strings.CutSuffix(key.String(), enabledSuffix)
			name := namespace + "_" + status

			spec, ok := b.table.lookup(name)
			if !ok || spec.domain != domainDashboard {
				return true
			}
			if value.Type != gjson.Number {
				slog.Debug("collector: skipping non-numeric dashboard value",
					"key", key.String(), "value", value.Raw)
				return true
			}

			switch len(spec.labels) {
			case 0:
				b.add(name, value.Float())
			case 1:
				b.add(name, value.Float(), boolLabel(enabled))
			}
			return true
		})
	}
	return nil
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
