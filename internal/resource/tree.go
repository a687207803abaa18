// Package resource implements the PE resource directory as an arena of
// nodes addressed by integer index rather than an owned graph with
// back-pointers, so that cloning a tree for a merge is just "allocate a new
// arena and remap indices" (see design note on deep clones before merge).
package resource

// EntryKind distinguishes a directory entry's payload.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindData
)

// NodeIndex addresses a Node within a Tree's arena. The zero value is a
// valid index (the root), so absence is represented with a separate bool
// or a negative sentinel where needed.
type NodeIndex int

const noChild NodeIndex = -1

// Entry is one entry of a directory Node: either a named or an id-keyed
// reference to a child directory or data node.
type Entry struct {
	IsName bool
	Name   []byte // UTF-16LE bytes as stored on disk, only if IsName
	ID     uint32 // only if !IsName

	Kind  EntryKind
	Child NodeIndex
}

// DirNode is an IMAGE_RESOURCE_DIRECTORY plus its entries.
type DirNode struct {
	Characteristics uint32
	TimeDateStamp   uint32
	MajorVersion    uint16
	MinorVersion    uint16
	Entries         []Entry
}

// NamedCount reports how many entries are name-keyed (must precede
// id-keyed entries on disk).
func (d *DirNode) NamedCount() int {
	n := 0
	for _, e := range d.Entries {
		if e.IsName {
			n++
		}
	}
	return n
}

// IDCount reports how many entries are id-keyed.
func (d *DirNode) IDCount() int {
	return len(d.Entries) - d.NamedCount()
}

// DataNode is an IMAGE_RESOURCE_DATA_ENTRY plus a copy of its payload.
type DataNode struct {
	VA       uint32 // assigned relative to the owning .rsrc section's base VA
	CodePage uint32
	Reserved uint32
	Data     []byte
}

// Tree is the arena: directories and data nodes are addressed by disjoint
// index spaces so a Child index in an Entry must be dereferenced through
// the Kind-appropriate slice.
type Tree struct {
	Dirs  []DirNode
	Datas []DataNode
	Root  NodeIndex // index into Dirs
}

// New returns an empty tree with a single empty root directory.
func New() *Tree {
	return &Tree{Dirs: []DirNode{{}}, Root: 0}
}

// AddDir appends a new directory node and returns its index.
func (t *Tree) AddDir(d DirNode) NodeIndex {
	t.Dirs = append(t.Dirs, d)
	return NodeIndex(len(t.Dirs) - 1)
}

// AddData appends a new data node and returns its index.
func (t *Tree) AddData(d DataNode) NodeIndex {
	t.Datas = append(t.Datas, d)
	return NodeIndex(len(t.Datas) - 1)
}

// Dir returns the directory node at index i.
func (t *Tree) Dir(i NodeIndex) *DirNode {
	return &t.Dirs[i]
}

// Data returns the data node at index i.
func (t *Tree) Data(i NodeIndex) *DataNode {
	return &t.Datas[i]
}

// Clone deep-copies the tree into a fresh arena. Used before any merge
// since a merged tree is a throwaway and must never alias the original.
func (t *Tree) Clone() *Tree {
	out := &Tree{
		Dirs:  make([]DirNode, len(t.Dirs)),
		Datas: make([]DataNode, len(t.Datas)),
		Root:  t.Root,
	}
	for i, d := range t.Dirs {
		nd := d
		nd.Entries = make([]Entry, len(d.Entries))
		for j, e := range d.Entries {
			ne := e
			if e.IsName {
				ne.Name = append([]byte(nil), e.Name...)
			}
			nd.Entries[j] = ne
		}
		out.Dirs[i] = nd
	}
	for i, dn := range t.Datas {
		ndn := dn
		ndn.Data = append([]byte(nil), dn.Data...)
		out.Datas[i] = ndn
	}
	return out
}

// FindTopLevel returns the index of a top-level (direct root child) entry
// with the given numeric id, and ok=true if found. Used to locate/replace
// the RT_VERSION (id=16) subtree without touching siblings.
func (t *Tree) FindTopLevel(id uint32) (entryIndex int, ok bool) {
	root := t.Dir(t.Root)
	for i, e := range root.Entries {
		if !e.IsName && e.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ReplaceTopLevel swaps (or appends, if absent) a top-level entry and its
// subtree, grafting the subtree of donor rooted at donorRoot into t as a
// fresh set of nodes so no arena is shared between trees post-merge.
func (t *Tree) ReplaceTopLevel(id uint32, donor *Tree, donorRoot NodeIndex) {
	newChild := t.graft(donor, donorRoot)
	root := t.Dir(t.Root)
	for i, e := range root.Entries {
		if !e.IsName && e.ID == id {
			root.Entries[i].Child = newChild
			root.Entries[i].Kind = KindDirectory
			return
		}
	}
	root.Entries = append(root.Entries, Entry{ID: id, Kind: KindDirectory, Child: newChild})
}

// AppendTopLevel appends every top-level entry of donor (rooted at
// donorRoot) as new entries of t's root, grafting their subtrees.
func (t *Tree) AppendTopLevel(donor *Tree, donorRoot NodeIndex) {
	donorRootDir := donor.Dir(donorRoot)
	for _, e := range donorRootDir.Entries {
		ne := e
		if e.IsName {
			ne.Name = append([]byte(nil), e.Name...)
		}
		switch e.Kind {
		case KindDirectory:
			ne.Child = t.graft(donor, e.Child)
		case KindData:
			d := donor.Data(e.Child)
			nd := *d
			nd.Data = append([]byte(nil), d.Data...)
			ne.Child = t.AddData(nd)
		}
		root := t.Dir(t.Root)
		root.Entries = append(root.Entries, ne)
	}
}

// graft deep-copies the subtree rooted at donor's node donorIdx into t's
// arena and returns the new index.
func (t *Tree) graft(donor *Tree, donorIdx NodeIndex) NodeIndex {
	src := donor.Dir(donorIdx)
	nd := DirNode{
		Characteristics: src.Characteristics,
		TimeDateStamp:   src.TimeDateStamp,
		MajorVersion:    src.MajorVersion,
		MinorVersion:    src.MinorVersion,
		Entries:         make([]Entry, len(src.Entries)),
	}
	newIdx := t.AddDir(nd)
	for i, e := range src.Entries {
		ne := e
		if e.IsName {
			ne.Name = append([]byte(nil), e.Name...)
		}
		switch e.Kind {
		case KindDirectory:
			ne.Child = t.graft(donor, e.Child)
		case KindData:
			d := donor.Data(e.Child)
			nd := *d
			nd.Data = append([]byte(nil), d.Data...)
			ne.Child = t.AddData(nd)
		}
		t.Dirs[newIdx].Entries[i] = ne
	}
	return newIdx
}
