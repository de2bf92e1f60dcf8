package ledger

// The ownership index maps each identity to the item identifiers it currently
// holds. A position map per owner keeps removal O(1): the removed entry is
// swapped with the last element and the slice shrinks by one. Order within an
// owner's set carries no meaning.

func (l *Ledger) AddOwned(owner string, id uint64) {
	pos, ok := l.position[owner]
	if !ok {
		pos = make(map[uint64]int)
		l.position[owner] = pos
	}
	pos[id] = len(l.owned[owner])
	l.owned[owner] = append(l.owned[owner], id)
}

func (l *Ledger) RemoveOwned(owner string, id uint64) {
	pos := l.position[owner]
	i, ok := pos[id]
	if !ok {
		return
	}
	set := l.owned[owner]
	last := len(set) - 1
	if i != last {
		set[i] = set[last]
		pos[set[i]] = i
	}
	l.owned[owner] = set[:last]
	delete(pos, id)
}

// MoveOwned removes id from one owner's set and adds it to another's as a
// single step, so the id is never in zero or two sets between the halves.
func (l *Ledger) MoveOwned(from, to string, id uint64) {
	l.RemoveOwned(from, id)
	l.AddOwned(to, id)
}

// Owned returns a copy of the owner's current item identifiers.
func (l *Ledger) Owned(owner string) []uint64 {
	return append([]uint64{}, l.owned[owner]...)
}
