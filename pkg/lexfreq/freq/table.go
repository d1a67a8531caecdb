package freq

// Table maintains token counts in first-seen order
type Table struct {
	index  map[string]int // key -> position in keys/counts
	keys   []string
	counts []int64
	total  int64
}

// Entry is one key and its count
type Entry struct {
	Key   string `json:"word"`
	Count int64  `json:"frequency"`
}

// NewTable creates an empty frequency table
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Record increments key by one, creating it with count 1 if absent
func (t *Table) Record(key string) {
	t.Add(key, 1)
}

// Add increments key by n
func (t *Table) Add(key string, n int64) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.keys)
		t.index[key] = i
		t.keys = append(t.keys, key)
		t.counts = append(t.counts, 0)
	}
	t.counts[i] += n
	t.total += n
}

// Count returns the count for key
func (t *Table) Count(key string) int64 {
	if i, ok := t.index[key]; ok {
		return t.counts[i]
	}
	return 0
}

// Len returns the number of distinct keys
func (t *Table) Len() int {
	return len(t.keys)
}

// Total returns the sum of all counts
func (t *Table) Total() int64 {
	return t.total
}

// Entries returns all entries in insertion order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.keys))
	for i, k := range t.keys {
		out[i] = Entry{Key: k, Count: t.counts[i]}
	}
	return out
}

// Map returns a plain key -> count copy
func (t *Table) Map() map[string]int64 {
	out := make(map[string]int64, len(t.keys))
	for i, k := range t.keys {
		out[k] = t.counts[i]
	}
	return out
}

// Merge folds other into t. Keys unseen by t are appended in other's order,
// so merging per-file tables in file order reproduces sequential recording.
func (t *Table) Merge(other *Table) {
	for i, k := range other.keys {
		t.Add(k, other.counts[i])
	}
}
