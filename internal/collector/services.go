package collector

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// serviceBuckets are the statuses the ping endpoint reports per service.
var serviceBuckets = []string{"ok", "fail"}

// mapServices emits one 0/1 gauge per service and bucket, so
// katello_service_status{service_status="fail"} == 1 selects the failing
// services.
func mapServices(b *batch, payloads []payload) error {
	for _, p := range payloads {
		services := p.body.Get("services")
		if !services.IsObject() {
			return fmt.Errorf("services %q: missing services object", p.endpoint)
		}
		services.ForEach(func(name, svc gjson.Result) bool {
			status := svc.Get("status").String()
			for _, bucket := range serviceBuckets {
				var v float64
				if strings.EqualFold(status, bucket) {
					v = 1
				}
				b.add(serviceMetric, v, bucket, name.String())
			}
			return true
		})
	}
	return nil
}
