package psd

import "fmt"

// readBlockTag reads the 4-byte magic ("8BIM" or "8B64") and 4-byte key
// that frame every additional-layer-info block, per spec §4.4 and the
// glossary. It returns ok=false once the magic no longer matches, which is
// how both the per-layer and document-level tails know to stop.
func readBlockTag(r *Reader) (magic, key string, ok bool) {
	magic = r.ReadString(4)
	if magic != "8BIM" && magic != "8B64" {
		return magic, "", false
	}
	key = r.ReadString(4)
	return magic, key, true
}

// parseAdditionalLayerInfoBlocks reads the per-layer additional-layer-info
// blocks that follow a layer record's Pascal name, up to extraEnd, and
// dispatches each by key (spec §4.4). Every block is resumed from at
// exactly blockStart+paddedLength regardless of how much its handler
// consumed, per invariant 3.
func (lp *layerParser) parseAdditionalLayerInfoBlocks(l *LayerRecord, extraEnd uint64) error {
	r := lp.r
	for r.Tell() < extraEnd {
		_, key, ok := readBlockTag(r)
		if !ok {
			break
		}

		length := r.ReadSizeForKeys(key, lp.h.IsBig())
		dataStart := r.Tell()
		dataEnd := dataStart + length
		paddedEnd := dataEnd
		if length%2 != 0 {
			paddedEnd++
		}

		if err := lp.dispatchLayerInfoBlock(l, key, dataEnd); err != nil {
			return fmt.Errorf("additionalLayerInfo[%s]: %w", key, err)
		}

		r.Seek(paddedEnd)
	}
	return nil
}

func (lp *layerParser) dispatchLayerInfoBlock(l *LayerRecord, key string, dataEnd uint64) error {
	r := lp.r
	switch key {
	case "lsct":
		return parseSectionDivider(r, l, dataEnd)
	case "luni":
		l.Name = readAdditionalInfoUnicodeString(r)
		return nil
	case "lyid":
		id := r.I32()
		l.ID = &id
		return nil
	case "Lr16", "Lr32", "Layr":
		nested, err := lp.parseLayersInfo()
		if err != nil {
			return err
		}
		l.Nested = nested
		return nil
	case "shmd":
		return lp.parseLayerMetadata(l, dataEnd)
	case "cinf", "anFX", "SoLE", "SoLd":
		_, err := ParseTopLevelDescriptor(r, fmt.Sprintf("layerInfo[%s]", key))
		return err
	case "vmsk", "vsms":
		l.VectorMask = parseVectorMask(r, dataEnd)
		return nil
	default:
		if dataEnd >= r.Tell() {
			l.AdditionalInfo[key] = r.ReadBytes(dataEnd - r.Tell())
		}
		return nil
	}
}

func readAdditionalInfoUnicodeString(r *Reader) string {
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

// parseSectionDivider reads the "lsct" block: section type, and if present,
// a blend-mode signature/tag and a sub-type, per spec §4.4.
func parseSectionDivider(r *Reader, l *LayerRecord, dataEnd uint64) error {
	start := r.Tell()
	sectionType := r.U32()
	if sectionType > uint32(SectionBoundingSection) {
		return outOfRange("lsct", r.Tell(), fmt.Errorf("section type %d out of {0..3}", sectionType))
	}
	l.SectionType = SectionType(sectionType)

	length := dataEnd - start
	if length >= 12 {
		r.ReadString(4) // "8BIM" signature
		blendTag := r.ReadString(4)
		l.BlendMode = blendTag
	}
	if length >= 16 {
		subType := r.I32()
		switch subType {
		case 0, 1:
			l.SectionSubType = &subType
		}
	}
	return nil
}

// parseVectorMask reads the "vmsk"/"vsms" block: version, flags, and the
// remaining bytes as an opaque path record, per the teacher's layer_info.go
// and spec's Non-goal on vector rendering.
func parseVectorMask(r *Reader, dataEnd uint64) *VectorMaskInfo {
	v := &VectorMaskInfo{}
	v.Version = r.U32()
	v.Flags = r.U32()
	v.Inverted = v.Flags&0x01 != 0
	if dataEnd > r.Tell() {
		v.PathRecord = r.ReadBytes(dataEnd - r.Tell())
	}
	return v
}

// parseLayerMetadata reads the "shmd" block: a count of 8BIM-framed
// metadata items, dispatching "mlst"/"cust"/"tmln" to specialized
// descriptor sub-parsers, per spec §4.4.
func (lp *layerParser) parseLayerMetadata(l *LayerRecord, dataEnd uint64) error {
	r := lp.r
	count := r.U32()
	for i := uint32(0); i < count && r.Tell() < dataEnd; i++ {
		sig := r.ReadString(4)
		if sig != "8BIM" {
			return malformed("shmd", r.Tell(), fmt.Errorf("bad item signature %q", sig))
		}
		key := r.ReadString(4)
		r.Skip(4) // discard, per spec §4.4
		length := r.U32()
		itemEnd := r.Tell() + uint64(length)

		switch key {
		case "mlst":
			if err := parseLayerTimelineVisibility(r, l); err != nil {
				return err
			}
		case "cust", "tmln":
			// Descriptor-shaped but not further interpreted beyond
			// recognizing and skipping it correctly; no SPEC_FULL.md
			// operation consumes custom metadata or standalone timeline
			// blocks beyond the per-layer visibility mlst carries.
		}
		r.Seek(itemEnd)
	}
	return nil
}

// parseLayerTimelineVisibility reads the "mlst" sub-grammar: LaID must
// match the owning layer's ID, then a LaSt list whose items optionally
// carry "enab" (default-true visibility) and "FrLs" (frame ID list),
// appending one FrameVisibility per referenced frame, per spec §4.4.
func parseLayerTimelineVisibility(r *Reader, l *LayerRecord) error {
	desc, err := ParseTopLevelDescriptor(r, "mlst")
	if err != nil {
		return err
	}
	if laid, ok := desc.Fields.Get("LaID"); ok {
		if n, ok := laid.(Number); ok && l.ID != nil {
			if int32(n.AsInt64()) != *l.ID {
				return malformed("mlst", 0, fmt.Errorf("LaID %d does not match layer id %d", n.AsInt64(), *l.ID))
			}
		}
	}
	stateList, ok := desc.Fields.Get("LaSt")
	if !ok {
		return nil
	}
	list, ok := stateList.(List)
	if !ok {
		return nil
	}
	for _, item := range list.Items {
		state, ok := item.(Descriptor)
		if !ok {
			continue
		}
		visible := true
		if enab, ok := state.Fields.Get("enab"); ok {
			if b, ok := enab.(Boolean); ok {
				visible = bool(b)
			}
		}
		if frls, ok := state.Fields.Get("FrLs"); ok {
			if frameList, ok := frls.(List); ok {
				for _, fr := range frameList.Items {
					if n, ok := fr.(Number); ok {
						l.FrameVisibility = append(l.FrameVisibility, FrameVisibility{
							FrameID:   int32(n.AsInt64()),
							IsVisible: visible,
						})
					}
				}
			}
		}
	}
	return nil
}

// parseAdditionalLayerInfoTail reads the document-level additional-layer-
// info blocks that follow global mask info, per spec §4.4. These are
// captured raw since no SPEC_FULL.md component needs more than
// pass-through for linked files / filter effects IDs / pixel source data.
func (lp *layerParser) parseAdditionalLayerInfoTail(end uint64) error {
	r := lp.r
	info := &LayersInformation{AdditionalInfo: make(map[string][]byte)}
	for r.Tell() < end {
		_, key, ok := readBlockTag(r)
		if !ok {
			break
		}
		length := r.ReadSizeForKeys(key, lp.h.IsBig())
		dataEnd := r.Tell() + length
		paddedEnd := dataEnd
		if length%2 != 0 {
			paddedEnd++
		}
		if dataEnd > r.Tell() {
			info.AdditionalInfo[key] = r.ReadBytes(dataEnd - r.Tell())
		}
		r.Seek(paddedEnd)
	}
	// Stash the tail's raw blocks on every top-level layer's parent info
	// object is not possible here since parseLayersAndMask owns that
	// struct; the caller merges info.AdditionalInfo in after this returns.
	lp.tailAdditionalInfo = info.AdditionalInfo
	return nil
}
