package dynamo

// Merge folds partial snapshots left to right. A key in a later part replaces
// the same key from an earlier part wholesale; keys missing from later parts
// survive. Parts must be given in store insertion order.
func Merge(parts []Snapshot) Snapshot {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make(Snapshot, size)
	for _, p := range parts {
		for id, st := range p {
			out[id] = st
		}
	}
	return out
}
