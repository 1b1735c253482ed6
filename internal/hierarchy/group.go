package hierarchy

import (
	"sort"

	"taxonid/internal/taxon"
)

// Node is one entry of the flattened display sequence.
type Node struct {
	Record   taxon.Record `json:"record"`
	Depth    int          `json:"depth"`
	IsParent bool         `json:"is_parent"`
	IsChild  bool         `json:"is_child"`
	// Parent is the index of the parent within the same sequence, or -1.
	Parent int `json:"parent"`
	// Children are indexes of direct children within the same sequence.
	Children []int `json:"children,omitempty"`
}

// Forest is the arena built from a candidate set. Edges are stored as indexes
// into Records.
type Forest struct {
	Records  []taxon.Record
	parent   []int
	children [][]int
	roots    []int
}

// Build de-duplicates candidates by scientific name (first occurrence wins),
// links each candidate to its direct parent, and orders siblings and roots.
func Build(candidates []taxon.Record) *Forest {
	records := dedupe(candidates)
	n := len(records)

	// ancestor[i][j]: records[i] is a (possibly indirect) parent of records[j].
	ancestor := make([][]bool, n)
	for i := range ancestor {
		ancestor[i] = make([]bool, n)
		for j := range records {
			if i != j {
				ancestor[i][j] = IsParentOf(records[i], records[j])
			}
		}
	}

	f := &Forest{
		Records:  records,
		parent:   make([]int, n),
		children: make([][]int, n),
	}
	for c := range records {
		f.parent[c] = -1
		for p := range records {
			if !ancestor[p][c] || hasIntermediate(ancestor, p, c) {
				continue
			}
			if f.parent[c] < 0 || f.finer(p, f.parent[c]) {
				f.parent[c] = p
			}
		}
	}
	for c, p := range f.parent {
		if p < 0 {
			f.roots = append(f.roots, c)
			continue
		}
		f.children[p] = append(f.children[p], c)
	}
	f.sortIndexes(f.roots)
	for i := range f.children {
		f.sortIndexes(f.children[i])
	}
	return f
}

// Parent returns the index of the direct parent of record i, or -1.
func (f *Forest) Parent(i int) int {
	return f.parent[i]
}

// Flatten walks the forest in pre-order and stamps depth and parent/child flags.
func (f *Forest) Flatten() []Node {
	out := make([]Node, 0, len(f.Records))
	var visit func(idx, parentPos, depth int)
	visit = func(idx, parentPos, depth int) {
		pos := len(out)
		out = append(out, Node{
			Record:   f.Records[idx],
			Depth:    depth,
			IsParent: len(f.children[idx]) > 0,
			IsChild:  depth > 0,
			Parent:   parentPos,
		})
		if parentPos >= 0 {
			out[parentPos].Children = append(out[parentPos].Children, pos)
		}
		for _, child := range f.children[idx] {
			visit(child, pos, depth+1)
		}
	}
	for _, root := range f.roots {
		visit(root, -1, 0)
	}
	return out
}

// Group builds the forest for candidates and returns its flattened sequence.
func Group(candidates []taxon.Record) []Node {
	return Build(candidates).Flatten()
}

func dedupe(candidates []taxon.Record) []taxon.Record {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]taxon.Record, 0, len(candidates))
	for _, rec := range candidates {
		key := rec.ScientificName
		if key == "" {
			key = rec.OwnName()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func hasIntermediate(ancestor [][]bool, p, c int) bool {
	for m := range ancestor {
		if m != p && m != c && ancestor[p][m] && ancestor[m][c] {
			return true
		}
	}
	return false
}

// less orders coarser ranks first, then scientific names byte-wise.
func (f *Forest) less(a, b int) bool {
	ra, rb := f.Records[a].EffectiveRank().Order(), f.Records[b].EffectiveRank().Order()
	if ra != rb {
		return ra > rb
	}
	return f.nameLess(a, b)
}

// finer prefers the more specific of two competing direct parents.
func (f *Forest) finer(a, b int) bool {
	ra, rb := f.Records[a].EffectiveRank().Order(), f.Records[b].EffectiveRank().Order()
	if ra != rb {
		return ra < rb
	}
	return f.nameLess(a, b)
}

func (f *Forest) nameLess(a, b int) bool {
	ra, rb := f.Records[a], f.Records[b]
	if ra.ScientificName != rb.ScientificName {
		return ra.ScientificName < rb.ScientificName
	}
	if ra.OwnName() != rb.OwnName() {
		return ra.OwnName() < rb.OwnName()
	}
	return ra.ID < rb.ID
}

func (f *Forest) sortIndexes(idx []int) {
	sort.SliceStable(idx, func(i, j int) bool { return f.less(idx[i], idx[j]) })
}
