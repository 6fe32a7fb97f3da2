package editor

// SelectMode controls how Select combines ids with the current selection.
type SelectMode string

const (
	// SelectReplace makes ids the whole selection.
	SelectReplace SelectMode = "replace"
	// SelectToggle flips membership of each id.
	SelectToggle SelectMode = "toggle"
	// SelectAdd adds ids, keeping what is already selected.
	SelectAdd SelectMode = "add"
)

// Selection is an ordered set of node ids.
type Selection struct {
	ids []string
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Primary returns the most recently selected id.
func (s *Selection) Primary() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[len(s.ids)-1], true
}

// Apply combines ids into the selection according to mode.
func (s *Selection) Apply(ids []string, mode SelectMode) {
	switch mode {
	case SelectToggle:
		for _, id := range ids {
			if s.Contains(id) {
				s.remove(id)
			} else {
				s.ids = append(s.ids, id)
			}
		}
	case SelectAdd:
		for _, id := range ids {
			if !s.Contains(id) {
				s.ids = append(s.ids, id)
			}
		}
	default:
		s.ids = nil
		for _, id := range ids {
			if !s.Contains(id) {
				s.ids = append(s.ids, id)
			}
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
}

// Remove drops each of ids.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		s.remove(id)
	}
}

// Prune drops ids for which exists reports false and returns them.
func (s *Selection) Prune(exists func(id string) bool) []string {
	var stale []string
	kept := s.ids[:0]
	for _, id := range s.ids {
		if exists(id) {
			kept = append(kept, id)
		} else {
			stale = append(stale, id)
		}
	}
	s.ids = kept
	return stale
}

func (s *Selection) remove(id string) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}
