package roster

// Views return identities only. Callers resolve IDs through Get, so record
// content is never duplicated.

// EnteredOrder returns all IDs in append order
func (s *Store) EnteredOrder() []RecordID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]RecordID, len(s.records))
	for i := range ids {
		ids[i] = RecordID(i)
	}
	return ids
}

// Reversed returns the current ordering back to front
func (s *Store) Reversed() []RecordID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	ids := make([]RecordID, n)
	for i, id := range s.order {
		ids[n-1-i] = id
	}
	return ids
}

// Filter returns the IDs, in current order, of records matching pred
func (s *Store) Filter(pred func(*Record) bool) []RecordID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]RecordID, 0)
	for _, id := range s.order {
		if pred(s.records[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}
