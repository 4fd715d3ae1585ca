package collector

import "fmt"

// mapSubscriptions counts the hosts returned by each subscription status
// search. The status label comes from the endpoint, not the payload.
func mapSubscriptions(b *batch, payloads []payload) error {
	for _, p := range payloads {
		results := p.body.Get("results")
		if !results.IsArray() {
			return fmt.Errorf("subscriptions %q: missing results array", p.endpoint)
		}
		b.add(subscriptionMetric, float64(len(results.Array())), p.endpoint)
	}
	return nil
}
