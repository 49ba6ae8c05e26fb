package history

// Log is the ordered history of a ledger, oldest first. The ledger only
// ever appends to it.
type Log []Entry

// Append returns the log with e added at the end. The entry is copied so
// later changes to the caller's slices do not leak into the log.
func (l Log) Append(e Entry) Log {
	return append(l, e.clone())
}

// Last returns the most recent entry.
func (l Log) Last() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[len(l)-1], true
}

// Clone returns a deep copy of the log.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	c := make(Log, len(l))
	for i, e := range l {
		c[i] = e.clone()
	}
	return c
}

// Filter returns the entries whose action is one of actions.
func (l Log) Filter(actions ...Action) Log {
	want := make(map[Action]bool, len(actions))
	for _, a := range actions {
		want[a] = true
	}
	var out Log
	for _, e := range l {
		if want[e.Action] {
			out = append(out, e.clone())
		}
	}
	return out
}

// ConsumedTotal sums CurrentConsumed over every consumed entry.
func (l Log) ConsumedTotal() int {
	total := 0
	for _, e := range l {
		if e.Action == ActionConsumed {
			total += e.CurrentConsumed
		}
	}
	return total
}
