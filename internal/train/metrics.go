package train

// Mean is a streaming average over observed values.
type Mean struct {
	sum   float64
	count int
}

// Observe folds one value into the average.
func (m *Mean) Observe(v float64) {
	m.sum += v
	m.count++
}

// Value returns the current mean, or 0 before any observation.
func (m *Mean) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the number of observed values.
func (m *Mean) Count() int {
	return m.count
}

// Reset drops all observations.
func (m *Mean) Reset() {
	m.sum = 0
	m.count = 0
}

// metricSet tracks named running means for one epoch, keeping the order
// in which names were first observed.
type metricSet struct {
	order  []string
	byName map[string]*Mean
}

func newMetricSet() *metricSet {
	return &metricSet{byName: make(map[string]*Mean)}
}

func (s *metricSet) observe(name string, v float64) {
	m, ok := s.byName[name]
	if !ok {
		m = &Mean{}
		s.byName[name] = m
		s.order = append(s.order, name)
	}
	m.Observe(v)
}

func (s *metricSet) mean(name string) (float64, bool) {
	m, ok := s.byName[name]
	if !ok || m.Count() == 0 {
		return 0, false
	}
	return m.Value(), true
}

func (s *metricSet) means() map[string]float64 {
	out := make(map[string]float64, len(s.order))
	for _, name := range s.order {
		out[name] = s.byName[name].Value()
	}
	return out
}
