package resource

import "encoding/binary"

const (
	dirHeaderSize   = 16
	dirEntrySize    = 8
	dataEntrySize   = 16
)

// walkOrder lists directory node indices in the breadth-first order they
// will be emitted, so that every directory's children are emitted after it
// and offsets can be assigned in a single forward pass.
func (t *Tree) walkOrder() []NodeIndex {
	var order []NodeIndex
	seen := make(map[NodeIndex]bool)
	queue := []NodeIndex{t.Root}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
		for _, e := range t.Dir(idx).Entries {
			if e.Kind == KindDirectory {
				queue = append(queue, e.Child)
			}
		}
	}
	return order
}

// dataOrder lists data node indices in the order their owning directory
// entries are visited (BFS over directories, in entry order).
func (t *Tree) dataOrder() []NodeIndex {
	var order []NodeIndex
	dirs := t.walkOrder()
	for _, idx := range dirs {
		for _, e := range t.Dir(idx).Entries {
			if e.Kind == KindData {
				order = append(order, e.Child)
			}
		}
	}
	return order
}

func align(n, to int) int {
	if to <= 1 {
		return n
	}
	r := n % to
	if r == 0 {
		return n
	}
	return n + (to - r)
}

// Flatten serializes the tree into four concatenated byte regions:
// directory structs (all levels), data-entry descriptors, name strings,
// then data payloads. It stamps each DataNode's
// VA as rsrcVA + its byte offset within the returned buffer, and returns
// the flattened bytes padded to fileAlign.
//
// Invariant maintained: every data entry's VA equals rsrcVA plus its byte
// offset within the returned buffer.
func (t *Tree) Flatten(rsrcVA uint32, fileAlign int) ([]byte, error) {
	dirs := t.walkOrder()
	dirOffset := make(map[NodeIndex]int)
	dataDescOffset := make(map[NodeIndex]int)

	// Pass 1: compute directory region size and each directory's offset.
	off := 0
	for _, idx := range dirs {
		dirOffset[idx] = off
		off += dirHeaderSize + dirEntrySize*len(t.Dir(idx).Entries)
	}
	dirRegionSize := off

	// Pass 2: data-entry descriptor structs immediately follow the
	// directory region, one per data node in visitation order.
	dataNodes := t.dataOrder()
	off = dirRegionSize
	for _, idx := range dataNodes {
		dataDescOffset[idx] = off
		off += dataEntrySize
	}
	dataDescRegionEnd := off

	// Pass 3: name strings, 2-byte aligned between names.
	nameOffset := make(map[NodeIndex]map[int]int) // dir -> entry index -> name offset
	off = dataDescRegionEnd
	for _, idx := range dirs {
		d := t.Dir(idx)
		for ei, e := range d.Entries {
			if !e.IsName {
				continue
			}
			off = align(off, 2)
			if nameOffset[idx] == nil {
				nameOffset[idx] = make(map[int]int)
			}
			nameOffset[idx][ei] = off
			off += 2 + len(e.Name)
		}
	}
	nameRegionEnd := off

	// Pass 4: data payloads, 4-byte aligned by virtual address.
	off = nameRegionEnd
	dataPayloadOffset := make(map[NodeIndex]int)
	for _, idx := range dataNodes {
		off = align(off, 4)
		dataPayloadOffset[idx] = off
		off += len(t.Data(idx).Data)
	}
	total := off

	buf := make([]byte, align(total, fileAlign))

	// Emit directory structs.
	for _, idx := range dirs {
		d := t.Dir(idx)
		base := dirOffset[idx]
		binary.LittleEndian.PutUint32(buf[base:], d.Characteristics)
		binary.LittleEndian.PutUint32(buf[base+4:], d.TimeDateStamp)
		binary.LittleEndian.PutUint16(buf[base+8:], d.MajorVersion)
		binary.LittleEndian.PutUint16(buf[base+10:], d.MinorVersion)
		binary.LittleEndian.PutUint16(buf[base+12:], uint16(d.NamedCount()))
		binary.LittleEndian.PutUint16(buf[base+14:], uint16(d.IDCount()))

		entryBase := base + dirHeaderSize
		for ei, e := range d.Entries {
			eb := entryBase + ei*dirEntrySize
			if e.IsName {
				no := nameOffset[idx][ei]
				binary.LittleEndian.PutUint32(buf[eb:], uint32(no)|0x80000000)
			} else {
				binary.LittleEndian.PutUint32(buf[eb:], e.ID)
			}
			switch e.Kind {
			case KindDirectory:
				binary.LittleEndian.PutUint32(buf[eb+4:], uint32(dirOffset[e.Child])|0x80000000)
			case KindData:
				binary.LittleEndian.PutUint32(buf[eb+4:], uint32(dataDescOffset[e.Child]))
			}
		}
	}

	// Emit data-entry descriptor structs and stamp VAs.
	for _, idx := range dataNodes {
		dn := t.Data(idx)
		payloadOff := dataPayloadOffset[idx]
		dn.VA = rsrcVA + uint32(payloadOff)

		base := dataDescOffset[idx]
		binary.LittleEndian.PutUint32(buf[base:], dn.VA)
		binary.LittleEndian.PutUint32(buf[base+4:], uint32(len(dn.Data)))
		binary.LittleEndian.PutUint32(buf[base+8:], dn.CodePage)
		binary.LittleEndian.PutUint32(buf[base+12:], dn.Reserved)
	}

	// Emit name strings.
	for _, idx := range dirs {
		d := t.Dir(idx)
		for ei, e := range d.Entries {
			if !e.IsName {
				continue
			}
			no := nameOffset[idx][ei]
			binary.LittleEndian.PutUint16(buf[no:], uint16(len(e.Name)/2))
			copy(buf[no+2:], e.Name)
		}
	}

	// Emit data payloads.
	for _, idx := range dataNodes {
		dn := t.Data(idx)
		copy(buf[dataPayloadOffset[idx]:], dn.Data)
	}

	return buf, nil
}
