package resource

import (
	"encoding/binary"
	"fmt"
)

// Parse walks a raw .rsrc section's bytes into a Tree. rsrcVA is the
// section's virtual address, used to translate each data entry's absolute
// VA back into a local offset within data. A visited-offset set catches
// cycles and a depth cap of 32 bounds the recursion.
func Parse(data []byte, rsrcVA uint32) (*Tree, error) {
	p := &parser{data: data, rsrcVA: rsrcVA, visited: make(map[uint32]bool)}
	t := &Tree{}
	root, err := p.parseDir(t, 0, 0)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

const maxDepth = 32

type parser struct {
	data    []byte
	rsrcVA  uint32
	visited map[uint32]bool
}

func (p *parser) parseDir(t *Tree, offset uint32, depth int) (NodeIndex, error) {
	if depth > maxDepth {
		return 0, fmt.Errorf("resource directory recursion exceeds depth cap %d", maxDepth)
	}
	if p.visited[offset] {
		return 0, fmt.Errorf("resource directory cycle detected at offset 0x%x", offset)
	}
	p.visited[offset] = true

	if int(offset)+dirHeaderSize > len(p.data) {
		return 0, fmt.Errorf("resource directory header out of bounds at 0x%x", offset)
	}
	d := DirNode{
		Characteristics: binary.LittleEndian.Uint32(p.data[offset:]),
		TimeDateStamp:   binary.LittleEndian.Uint32(p.data[offset+4:]),
		MajorVersion:    binary.LittleEndian.Uint16(p.data[offset+8:]),
		MinorVersion:    binary.LittleEndian.Uint16(p.data[offset+10:]),
	}
	named := binary.LittleEndian.Uint16(p.data[offset+12:])
	ids := binary.LittleEndian.Uint16(p.data[offset+14:])
	total := int(named) + int(ids)

	idx := t.AddDir(d)

	entryBase := offset + dirHeaderSize
	entries := make([]Entry, total)
	for i := 0; i < total; i++ {
		eb := entryBase + uint32(i*dirEntrySize)
		if int(eb)+dirEntrySize > len(p.data) {
			return 0, fmt.Errorf("resource entry out of bounds at 0x%x", eb)
		}
		nameOrID := binary.LittleEndian.Uint32(p.data[eb:])
		offsetField := binary.LittleEndian.Uint32(p.data[eb+4:])

		var e Entry
		if nameOrID&0x80000000 != 0 {
			nameOff := nameOrID &^ 0x80000000
			if int(nameOff)+2 > len(p.data) {
				return 0, fmt.Errorf("resource name out of bounds at 0x%x", nameOff)
			}
			length := binary.LittleEndian.Uint16(p.data[nameOff:])
			start := int(nameOff) + 2
			end := start + int(length)*2
			if end > len(p.data) {
				return 0, fmt.Errorf("resource name string out of bounds at 0x%x", nameOff)
			}
			e.IsName = true
			e.Name = append([]byte(nil), p.data[start:end]...)
		} else {
			e.ID = nameOrID
		}

		if offsetField&0x80000000 != 0 {
			childOffset := offsetField &^ 0x80000000
			childIdx, err := p.parseDir(t, childOffset, depth+1)
			if err != nil {
				return 0, err
			}
			e.Kind = KindDirectory
			e.Child = childIdx
		} else {
			dataIdx, err := p.parseDataEntry(t, offsetField)
			if err != nil {
				return 0, err
			}
			e.Kind = KindData
			e.Child = dataIdx
		}
		entries[i] = e
	}
	t.Dirs[idx].Entries = entries
	return idx, nil
}

func (p *parser) parseDataEntry(t *Tree, offset uint32) (NodeIndex, error) {
	if int(offset)+dataEntrySize > len(p.data) {
		return 0, fmt.Errorf("resource data entry out of bounds at 0x%x", offset)
	}
	va := binary.LittleEndian.Uint32(p.data[offset:])
	size := binary.LittleEndian.Uint32(p.data[offset+4:])
	codePage := binary.LittleEndian.Uint32(p.data[offset+8:])
	reserved := binary.LittleEndian.Uint32(p.data[offset+12:])

	localOff := int64(va) - int64(p.rsrcVA)
	if localOff < 0 || localOff+int64(size) > int64(len(p.data)) {
		return 0, fmt.Errorf("resource data payload out of bounds at VA 0x%x", va)
	}
	payload := append([]byte(nil), p.data[localOff:localOff+int64(size)]...)

	return t.AddData(DataNode{VA: va, CodePage: codePage, Reserved: reserved, Data: payload}), nil
}
