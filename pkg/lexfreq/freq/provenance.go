package freq

// Provenance maps a lemma key to the distinct surface forms seen for it.
// Keys and forms keep first-seen order.
type Provenance struct {
	index map[string]int
	keys  []string
	forms []formSet
}

type formSet struct {
	seen  map[string]struct{}
	order []string
}

// NewProvenance creates an empty provenance map
func NewProvenance() *Provenance {
	return &Provenance{index: make(map[string]int)}
}

// Add unions form into key's set, creating the set if absent
func (p *Provenance) Add(key, form string) {
	i, ok := p.index[key]
	if !ok {
		i = len(p.keys)
		p.index[key] = i
		p.keys = append(p.keys, key)
		p.forms = append(p.forms, formSet{seen: make(map[string]struct{})})
	}
	fs := &p.forms[i]
	if _, dup := fs.seen[form]; dup {
		return
	}
	fs.seen[form] = struct{}{}
	fs.order = append(fs.order, form)
}

// Forms returns a copy of key's surface forms in first-seen order
func (p *Provenance) Forms(key string) []string {
	i, ok := p.index[key]
	if !ok {
		return nil
	}
	out := make([]string, len(p.forms[i].order))
	copy(out, p.forms[i].order)
	return out
}

// Size returns the number of forms recorded for key
func (p *Provenance) Size(key string) int {
	if i, ok := p.index[key]; ok {
		return len(p.forms[i].order)
	}
	return 0
}

// Len returns the number of keys
func (p *Provenance) Len() int {
	return len(p.keys)
}

// Keys returns the keys in insertion order
func (p *Provenance) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Map returns a plain key -> forms copy
func (p *Provenance) Map() map[string][]string {
	out := make(map[string][]string, len(p.keys))
	for _, k := range p.keys {
		out[k] = p.Forms(k)
	}
	return out
}

// Merge unions every set of other into p
func (p *Provenance) Merge(other *Provenance) {
	for i, k := range other.keys {
		for _, f := range other.forms[i].order {
			p.Add(k, f)
		}
	}
}
