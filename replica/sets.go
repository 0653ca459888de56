package replica

import mapset "github.com/deckarep/golang-set"

// postsByCellIndex tracks each cell's post-id membership using the
// teacher pack's set-container library rather than a bare
// map[string]struct{}, matching how the pack reaches for named set
// semantics wherever a component needs them (see DESIGN.md, C5).
type postsByCellIndex struct {
	byCell map[string]mapset.Set
}

func newPostsByCellIndex() *postsByCellIndex {
	return &postsByCellIndex{byCell: make(map[string]mapset.Set)}
}

func (idx *postsByCellIndex) add(cellID, postID string) {
	s, ok := idx.byCell[cellID]
	if !ok {
		s = mapset.NewThreadUnsafeSet()
		idx.byCell[cellID] = s
	}
	s.Add(postID)
}

func (idx *postsByCellIndex) postIDs(cellID string) []string {
	s, ok := idx.byCell[cellID]
	if !ok {
		return nil
	}
	out := make([]string, 0, s.Cardinality())
	for _, v := range s.ToSlice() {
		out = append(out, v.(string))
	}
	return out
}

func (idx *postsByCellIndex) count(cellID string) int {
	s, ok := idx.byCell[cellID]
	if !ok {
		return 0
	}
	return s.Cardinality()
}
