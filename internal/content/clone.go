package content

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Topics = cloneTopics(p.Topics)
	return &cp
}

// Clone returns a deep copy of the topic.
func (t Topic) Clone() Topic {
	t.Submodules = cloneSubmodules(t.Submodules)
	return t
}

// Clone returns a deep copy of the submodule.
func (s Submodule) Clone() Submodule {
	s.Cells = CloneCells(s.Cells)
	if s.MiniQuiz != nil {
		qs := make([]QuizQuestion, len(s.MiniQuiz))
		for i, q := range s.MiniQuiz {
			q.Options = append([]string(nil), q.Options...)
			qs[i] = q
		}
		s.MiniQuiz = qs
	}
	return s
}

// CloneCells deep-copies a cell list.
func CloneCells(cells []Cell) []Cell {
	if cells == nil {
		return nil
	}
	out := make([]Cell, len(cells))
	for i, c := range cells {
		if c.Resources != nil {
			c.Resources = append([]Resource(nil), c.Resources...)
		}
		out[i] = c
	}
	return out
}

func cloneTopics(ts []Topic) []Topic {
	if ts == nil {
		return nil
	}
	out := make([]Topic, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

func cloneSubmodules(ss []Submodule) []Submodule {
	if ss == nil {
		return nil
	}
	out := make([]Submodule, len(ss))
	for i, s := range ss {
		out[i] = s.Clone()
	}
	return out
}
