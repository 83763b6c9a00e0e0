package psd

import "fmt"

// AnimationFrame is one entry of an animated-data (resource ID 4003) frame
// list: duration, frame ID, and "global altitude" (ga), per spec §4.4.
type AnimationFrame struct {
	ID       int32
	Duration int32
	GA       float64
}

// parseAnimationResource implements resource ID 4003's payload: three
// unknown, unvalidated u32s, an "8BIM"/"AnDs" tag pair, then a descriptor
// holding the FSts (frame states) and FrIn (frames) lists, per spec §4.4.
func parseAnimationResource(data []byte) ([]AnimationFrame, int, error) {
	const section = "animation"
	r := NewReader(NewMemorySource(data))

	r.U32() // unknown
	r.U32() // unknown
	r.U32() // unknown, skipped without validation per spec §4.4

	sig := r.ReadString(4)
	if sig != "8BIM" {
		return nil, 0, malformed(section, r.Tell(), fmt.Errorf("bad signature %q, want \"8BIM\"", sig))
	}
	key := r.ReadString(4)
	if key != "AnDs" {
		return nil, 0, malformed(section, r.Tell(), fmt.Errorf("bad key %q, want \"AnDs\"", key))
	}

	desc, err := ParseTopLevelDescriptor(r, section)
	if err != nil {
		return nil, 0, err
	}

	active := 0
	if v, ok := desc.Fields.Get("FSts"); ok {
		if list, ok := v.(List); ok && len(list.Items) == 1 {
			if fstate, ok := list.Items[0].(Descriptor); ok {
				if afrm, ok := fstate.Fields.Get("AFrm"); ok {
					if n, ok := afrm.(Number); ok {
						active = int(n.AsInt64())
					}
				}
			}
		}
	}

	var frames []AnimationFrame
	if v, ok := desc.Fields.Get("FrIn"); ok {
		if list, ok := v.(List); ok {
			for _, item := range list.Items {
				fd, ok := item.(Descriptor)
				if !ok {
					continue
				}
				frames = append(frames, animationFrameFromDescriptor(fd))
			}
		}
	}

	return frames, active, nil
}

func animationFrameFromDescriptor(d Descriptor) AnimationFrame {
	f := AnimationFrame{}
	if v, ok := d.Fields.Get("FrDl"); ok {
		if n, ok := v.(Number); ok {
			f.Duration = int32(n.AsInt64())
		}
	}
	if v, ok := d.Fields.Get("FrID"); ok {
		if n, ok := v.(Number); ok {
			f.ID = int32(n.AsInt64())
		}
	}
	if v, ok := d.Fields.Get("FrGA"); ok {
		if n, ok := v.(Number); ok {
			f.GA = n.AsFloat64()
		}
	}
	return f
}
