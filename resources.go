package psd

import "fmt"

// ImageResource is one entry from the image resources section (spec §3,
// §4.4): a 16-bit resource ID, a 2-byte-aligned Pascal name, and a payload
// that is dispatched based on ID.
type ImageResource struct {
	ID   uint16
	Name string

	// Descriptor is set when ID is one of the descriptor-bearing IDs and
	// the descriptor parsed successfully.
	Descriptor *Descriptor

	// Raw holds the resource payload verbatim for every ID that is not
	// descriptor-bearing, including 4003 and 1050, whose payloads are
	// additionally parsed from these bytes.
	Raw []byte
}

// descriptorResourceIDs is the listed subset of resource IDs whose payload
// is a descriptor-format-version-16 descriptor, per spec §4.4.
var descriptorResourceIDs = map[uint16]bool{
	1065: true, 1074: true, 1075: true, 1076: true, 1078: true,
	1080: true, 1082: true, 1083: true, 1088: true, 3000: true,
}

const (
	resourceIDAnimation = 4003
	resourceIDSlices    = 1050
	resourceIDLayerComp = 1065
)

// LayerComp is a named snapshot of layer visibility/position/appearance,
// carried in resource 1065's descriptor. The teacher stubbed this out
// entirely (resource.go:LayerComps always returned an empty slice); it is
// supplemented here since the descriptor grammar to decode it is already
// fully general once ostype.go exists.
type LayerComp struct {
	ID      int32
	Name    string
	Visible bool
}

// parseImageResources reads the outer-length-prefixed, repeating-record
// image resources section (spec §4.4). Each record's length is honored
// exactly: the cursor always resumes at the record's declared end,
// regardless of how much of the payload dispatch actually consumed.
func parseImageResources(r *Reader, delegate Delegate) error {
	const section = "imageResources"

	outerLen := r.U32()
	if outerLen == 0 {
		return nil
	}
	start := r.Tell()
	end := start + uint64(outerLen)

	for r.Tell() < end {
		res, err := parseOneResource(r, section)
		if err != nil {
			return err
		}
		if res != nil {
			delegate.OnImageResource(res)
			dispatchSpecialResource(r, res, delegate)
		}
	}
	return nil
}

func parseOneResource(r *Reader, section string) (*ImageResource, error) {
	sig := r.ReadString(4)
	if sig != "8BIM" {
		return nil, malformed(section, r.Tell(), fmt.Errorf("bad resource signature %q", sig))
	}

	id := r.U16()
	name := r.ReadPascalString(2)
	length := r.U32()

	payloadStart := r.Tell()
	payloadEnd := payloadStart + uint64(length)
	if length%2 != 0 {
		payloadEnd++ // pad byte
	}

	res := &ImageResource{ID: id, Name: name}

	switch {
	case descriptorResourceIDs[id]:
		desc, err := ParseTopLevelDescriptor(r, fmt.Sprintf("%s[%d].descriptor", section, id))
		if err != nil {
			return nil, err
		}
		res.Descriptor = &desc
	case id == resourceIDAnimation, id == resourceIDSlices:
		// Handled by dispatchSpecialResource from the raw payload bytes,
		// so it can seek freely without disturbing the outer cursor
		// discipline below.
		res.Raw = r.ReadBytes(uint64(length))
	default:
		res.Raw = r.ReadBytes(uint64(length))
	}

	if !r.OK() {
		return nil, malformed(section, r.Tell(), fmt.Errorf("unexpected EOF in resource %d payload", id))
	}

	// Resume exactly at the declared (possibly padded) end, regardless of
	// how much the dispatch above consumed — this is invariant 3 from
	// spec §8, applied to image resources the same way it applies to
	// additional-layer-info blocks.
	r.Seek(payloadEnd)
	return res, nil
}

func dispatchSpecialResource(r *Reader, res *ImageResource, delegate Delegate) {
	switch res.ID {
	case resourceIDAnimation:
		if frames, active, err := parseAnimationResource(res.Raw); err == nil {
			delegate.OnFramesData(frames, active)
		}
	case resourceIDSlices:
		if slices, err := parseSlicesResource(res.Raw); err == nil {
			delegate.OnSlicesData(slices)
		}
	}
}

// LayerComps extracts LayerComp entries from a parsed resource 1065
// descriptor, when present.
func LayerComps(res *ImageResource) []LayerComp {
	if res == nil || res.ID != resourceIDLayerComp || res.Descriptor == nil {
		return nil
	}
	listVal, ok := res.Descriptor.Fields.Get("layerComps")
	if !ok {
		return nil
	}
	list, ok := listVal.(List)
	if !ok {
		return nil
	}
	comps := make([]LayerComp, 0, len(list.Items))
	for _, item := range list.Items {
		d, ok := item.(Descriptor)
		if !ok {
			continue
		}
		comp := LayerComp{}
		if v, ok := d.Fields.Get("layerCompID"); ok {
			if n, ok := v.(Number); ok {
				comp.ID = int32(n.AsInt64())
			}
		}
		if v, ok := d.Fields.Get("name"); ok {
			if s, ok := v.(String); ok {
				comp.Name = string(s)
			}
		}
		if v, ok := d.Fields.Get("capturedInfo"); ok {
			if b, ok := v.(Boolean); ok {
				comp.Visible = bool(b)
			}
		}
		comps = append(comps, comp)
	}
	return comps
}
