package collector

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// MetricFamilies converts the samples into client_model families, one per
// metric that received at least one sample, in table order.
func (r *Result) MetricFamilies() []*dto.MetricFamily {
	bySpec := make(map[string][]Sample, len(r.table.specs))
	for _, s := range r.Samples {
		bySpec[s.Name] = append(bySpec[s.Name], s)
	}

	var out []*dto.MetricFamily
	for _, spec := range r.table.specs {
		samples := bySpec[spec.name]
		if len(samples) == 0 {
			continue
		}
		mf := &dto.MetricFamily{
			Name: proto.String(spec.name),
			Help: proto.String(spec.help),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		for _, s := range samples {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: labelPairs(spec.labels, s.LabelValues),
				Gauge: &dto.Gauge{Value: proto.Float64(s.Value)},
			})
		}
		out = append(out, mf)
	}
	return out
}

// WriteText encodes the result in the Prometheus text exposition format.
func (r *Result) WriteText(w io.Writer) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range r.MetricFamilies() {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("collector: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// labelPairs zips names and values, sorted by label name as the registry
// does.
func labelPairs(names, values []string) []*dto.LabelPair {
	if len(names) == 0 {
		return nil
	}
	pairs := make([]*dto.LabelPair, len(names))
	for i := range names {
		pairs[i] = &dto.LabelPair{
			Name:  proto.String(names[i]),
			Value: proto.String(values[i]),
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].GetName() < pairs[j].GetName()
	})
	return pairs
}
