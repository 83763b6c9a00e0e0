package psd

import "fmt"

// SliceBounds is a layer-style top/left/bottom/right rectangle, as used by
// both the v6 flat slice layout and the v7/8 descriptor's "bounds" key.
type SliceBounds struct {
	Top, Left, Bottom, Right int32
}

// Slice is one entry of the slices resource (ID 1050), unified across the
// v6 flat layout and the v7/8 descriptor layout per spec §4.4.
type Slice struct {
	ID                int32
	GroupID           int32
	AssociatedLayerID int32
	Name              string
	Type              int32
	Bounds            SliceBounds
	URL               string
	Message           string
	AltTag            string
	CellText          string
	CellTextIsHTML    bool
}

// SlicesResource is the fully parsed payload of resource ID 1050.
type SlicesResource struct {
	Version  int32
	Bounds   SliceBounds
	BaseName string
	Slices   []Slice
}

// parseSlicesResource dispatches on the version byte: 6 is the legacy flat
// layout, 7/8 wrap a descriptor, per spec §4.4.
func parseSlicesResource(data []byte) (*SlicesResource, error) {
	r := NewReader(NewMemorySource(data))
	version := r.I32()

	switch version {
	case 6:
		return parseSlicesV6(r, version)
	case 7, 8:
		return parseSlicesV7(r, version)
	default:
		return nil, malformed("slices", r.Tell(), fmt.Errorf("unsupported slices version %d", version))
	}
}

func parseSlicesV6(r *Reader, version int32) (*SlicesResource, error) {
	out := &SlicesResource{Version: version}
	out.Bounds = SliceBounds{Top: r.I32(), Left: r.I32(), Bottom: r.I32(), Right: r.I32()}
	out.BaseName = readSlicesUnicodeString(r)

	count := r.U32()
	out.Slices = make([]Slice, 0, count)
	for i := uint32(0); i < count; i++ {
		s := Slice{}
		s.ID = r.I32()
		s.GroupID = r.I32()
		origin := r.I32()
		if origin == 1 {
			s.AssociatedLayerID = r.I32()
		}
		s.Name = readSlicesUnicodeString(r)
		s.Type = r.I32()
		s.Bounds = SliceBounds{Top: r.I32(), Left: r.I32(), Bottom: r.I32(), Right: r.I32()}
		s.URL = readSlicesUnicodeString(r)
		_ = readSlicesUnicodeString(r) // target, unused
		s.Message = readSlicesUnicodeString(r)
		s.AltTag = readSlicesUnicodeString(r)
		s.CellTextIsHTML = r.U8() != 0
		s.CellText = readSlicesUnicodeString(r)
		r.I32() // horizontal alignment, unused
		r.I32() // vertical alignment, unused
		r.Skip(4) // ARGB color
		out.Slices = append(out.Slices, s)
	}
	if !r.OK() {
		return nil, malformed("slices", r.Tell(), fmt.Errorf("unexpected EOF in v6 slices payload"))
	}
	return out, nil
}

func readSlicesUnicodeString(r *Reader) string {
	n := r.U32()
	if n == 0 {
		return ""
	}
	raw := r.ReadBytes(uint64(n) * 2)
	runes := make([]rune, n)
	for i := uint32(0); i < n; i++ {
		runes[i] = rune(uint16(raw[i*2])<<8 | uint16(raw[i*2+1]))
	}
	return string(runes)
}

func parseSlicesV7(r *Reader, version int32) (*SlicesResource, error) {
	desc, err := ParseTopLevelDescriptor(r, "slices.descriptor")
	if err != nil {
		return nil, err
	}
	out := &SlicesResource{Version: version}
	out.Bounds = boundsFromDescriptor(desc, "bounds")
	if v, ok := desc.Fields.Get("baseName"); ok {
		if s, ok := v.(String); ok {
			out.BaseName = string(s)
		}
	}
	if v, ok := desc.Fields.Get("slices"); ok {
		if list, ok := v.(List); ok {
			for _, item := range list.Items {
				if d, ok := item.(Descriptor); ok {
					out.Slices = append(out.Slices, sliceFromDescriptor(d))
				}
			}
		}
	}
	return out, nil
}

func boundsFromDescriptor(d Descriptor, key string) SliceBounds {
	var b SliceBounds
	v, ok := d.Fields.Get(key)
	if !ok {
		return b
	}
	bd, ok := v.(Descriptor)
	if !ok {
		return b
	}
	getInt := func(k string) int32 {
		if fv, ok := bd.Fields.Get(k); ok {
			if n, ok := fv.(Number); ok {
				return int32(n.AsInt64())
			}
		}
		return 0
	}
	return SliceBounds{Top: getInt("Top "), Left: getInt("Left"), Bottom: getInt("Btom"), Right: getInt("Rght")}
}

func sliceFromDescriptor(d Descriptor) Slice {
	s := Slice{}
	getInt := func(k string) int32 {
		if v, ok := d.Fields.Get(k); ok {
			if n, ok := v.(Number); ok {
				return int32(n.AsInt64())
			}
		}
		return 0
	}
	getStr := func(k string) string {
		if v, ok := d.Fields.Get(k); ok {
			if s, ok := v.(String); ok {
				return string(s)
			}
		}
		return ""
	}
	getBool := func(k string) bool {
		if v, ok := d.Fields.Get(k); ok {
			if b, ok := v.(Boolean); ok {
				return bool(b)
			}
		}
		return false
	}
	s.ID = getInt("sliceID")
	s.GroupID = getInt("groupID")
	s.Bounds = boundsFromDescriptor(d, "bounds")
	s.AltTag = getStr("altTag")
	s.CellText = getStr("cellText")
	s.URL = getStr("url")
	s.Message = getStr("Msge")
	s.CellTextIsHTML = getBool("cellTextIsHTML")
	return s
}
