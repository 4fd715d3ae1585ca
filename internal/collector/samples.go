package collector

// Sample is one gauge value produced by a mapper during a scrape.
// LabelValues follow the order of the metric's label names.
type Sample struct {
	Name        string
	Value       float64
	LabelValues []string
}

// batch buffers the samples one mapper produces for its endpoint group.
// The orchestrator commits a batch only when the mapper returns no error,
// so a failing group contributes nothing to the scrape.
type batch struct {
	table   *metricTable
	samples []Sample
}

func newBatch(t *metricTable) *batch {
	return &batch{table: t}
}

func (b *batch) add(name string, value float64, labelValues ...string) {
	b.samples = append(b.samples, Sample{Name: name, Value: value, LabelValues: labelValues})
}

// sampleSet is the metric state of one scrape: an empty sample list for
// every declared metric, filled by committed batches.
type sampleSet struct {
	table   *metricTable
	samples map[string][]Sample
}

// newSampleSet creates the empty state for every metric in t. It runs at
// the start of every scrape, before any mapper.
func newSampleSet(t *metricTable) *sampleSet {
	s := &sampleSet{
		table:   t,
		samples: make(map[string][]Sample, len(t.specs)),
	}
	for _, spec := range t.specs {
		s.samples[spec.name] = []Sample{}
	}
	return s
}

// add records sample if its metric is declared and the label arity matches.
// Anything else is dropped and reported through onDrop; it is never an
// error.
func (s *sampleSet) add(sample Sample, onDrop func(Sample)) bool {
	spec, ok := s.table.lookup(sample.Name)
	if !ok || len(spec.labels) != len(sample.LabelValues) {
		if onDrop != nil {
			onDrop(sample)
		}
		return false
	}
	s.samples[sample.Name] = append(s.samples[sample.Name], sample)
	return true
}

// commit adds every sample of b.
func (s *sampleSet) commit(b *batch, onDrop func(Sample)) {
	for _, sample := range b.samples {
		s.add(sample, onDrop)
	}
}

// list flattens the set in table order.
func (s *sampleSet) list() []Sample {
	var out []Sample
	for _, spec := range s.table.specs {
		out = append(out, s.samples[spec.name]...)
	}
	return out
}
