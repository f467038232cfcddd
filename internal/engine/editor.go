package engine

// EditorSlot holds the single open editor of one scope. Opening another key
// discards the previous draft.
type EditorSlot[K comparable, D any] struct {
	key   K
	draft D
	open  bool
}

// Open starts editing key. It returns the discarded draft of a different key,
// if one was open.
func (s *EditorSlot[K, D]) Open(key K, draft D) (discarded D, had bool) {
	if s.open && s.key != key {
		discarded, had = s.draft, true
	}
	if s.open && s.key == key {
		return discarded, false
	}
	s.key, s.draft, s.open = key, draft, true
	return discarded, had
}

// Active returns the key being edited.
func (s *EditorSlot[K, D]) Active() (K, bool) {
	return s.key, s.open
}

// Editing reports whether key is the open editor.
func (s *EditorSlot[K, D]) Editing(key K) bool {
	return s.open && s.key == key
}

// Draft returns the uncommitted value.
func (s *EditorSlot[K, D]) Draft() D {
	return s.draft
}

// SetDraft updates the uncommitted value of the open editor.
func (s *EditorSlot[K, D]) SetDraft(d D) {
	if s.open {
		s.draft = d
	}
}

// Close ends editing and returns the draft.
func (s *EditorSlot[K, D]) Close() (D, bool) {
	d, was := s.draft, s.open
	var zk K
	var zd D
	s.key, s.draft, s.open = zk, zd, false
	return d, was
}
