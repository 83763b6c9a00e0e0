package psd

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Value is the tagged-sum type for every OSType value kind in spec §3.
// Each concrete type below implements it; callers type-switch on the
// concrete type rather than downcasting from an interface{} bag, per
// Design Notes §9 ("model as a tagged sum... downcasts become pattern
// matches").
type Value interface {
	osTypeValue()
}

// Number is implemented by the three numeric Value kinds (Long,
// LargeInteger, Double), giving callers a common "as number" coercion
// without a type switch over all three, per spec §3 and Design Notes §9.
type Number interface {
	Value
	AsFloat64() float64
	AsInt64() int64
}

// Descriptor is a keyed, insertion-ordered map value ("Objc"/"GlbO").
type Descriptor struct {
	Name   string // UnicodeStr name, often empty
	Class  ClassMeta
	Fields *orderedFields
}

// ClassMeta is the UnicodeStr name + class ID pair shared by Descriptor,
// ClassType, and the enum/reference class bodies.
type ClassMeta struct {
	Name string
	ID   string // 4-byte code, or a longer ASCII id if length-prefixed
}

// List is an ordered sequence of values ("VlLs").
type List struct{ Items []Value }

// ReferenceItemKind tags the 7 reference-item kinds from spec §3. Three of
// them (RefIdentifier, RefIndex, RefName) have no documented body grammar;
// encountering one is always a malformed-descriptor error, per Design Notes
// §9 ("reject them as malformed until clarified — do not invent a body").
type ReferenceItemKind int

const (
	RefProperty ReferenceItemKind = iota
	RefClass
	RefEnum
	RefOffset
	RefIdentifier
	RefIndex
	RefName
)

// ReferenceItem is one element of a Reference value.
type ReferenceItem struct {
	Kind  ReferenceItemKind
	Class ClassMeta   // RefProperty, RefClass, RefEnum
	Key   string      // RefProperty's property key
	Enum  Enumerated  // RefEnum's enum value
	Index int32       // RefOffset
}

// Reference is an ordered sequence of reference items ("obj ").
type Reference struct{ Items []ReferenceItem }

// Double is a 64-bit float value ("doub").
type Double float64

// UnitKind tags the 6 documented UnitFloat unit tags.
type UnitKind int

const (
	UnitAngle UnitKind = iota
	UnitDensity
	UnitDistance
	UnitNone
	UnitPercent
	UnitPixel
)

var unitKindByTag = map[string]UnitKind{
	"#Ang": UnitAngle,
	"#Rsl": UnitDensity,
	"#Rlt": UnitDistance,
	"#Nne": UnitNone,
	"#Prc": UnitPercent,
	"#Pxl": UnitPixel,
}

// UnitFloat is a unit-tagged 64-bit float value ("UntF").
type UnitFloat struct {
	Unit  UnitKind
	Value float64
}

// String is a UTF-16BE string value ("TEXT").
type String string

// Enumerated is a type-key + enum-value-key pair ("enum").
type Enumerated struct {
	Type  string
	Value string
}

// Long is a 32-bit integer value ("long").
type Long int32

// LargeInteger is a 64-bit integer value ("comp").
type LargeInteger int64

// Boolean is a single-byte boolean value ("bool").
type Boolean bool

// ClassType is a UTF-16BE class name + class meta value ("type"/"GlbC").
type ClassType ClassMeta

// Alias is an opaque, length-prefixed blob whose content is not interpreted
// ("alis").
type Alias []byte

// RawData is opaque length-prefixed bytes, per Design Notes §9 ("the
// correct body is length-prefixed opaque bytes") ("tdta").
type RawData []byte

func (Descriptor) osTypeValue()   {}
func (List) osTypeValue()         {}
func (Reference) osTypeValue()    {}
func (Double) osTypeValue()       {}
func (UnitFloat) osTypeValue()    {}
func (String) osTypeValue()       {}
func (Enumerated) osTypeValue()   {}
func (Long) osTypeValue()         {}
func (LargeInteger) osTypeValue() {}
func (Boolean) osTypeValue()      {}
func (ClassType) osTypeValue()    {}
func (Alias) osTypeValue()        {}
func (RawData) osTypeValue()      {}

func (v Double) AsFloat64() float64       { return float64(v) }
func (v Double) AsInt64() int64           { return int64(v) }
func (v Long) AsFloat64() float64         { return float64(v) }
func (v Long) AsInt64() int64             { return int64(v) }
func (v LargeInteger) AsFloat64() float64 { return float64(v) }
func (v LargeInteger) AsInt64() int64     { return int64(v) }

// orderedFields is the small ordered-map abstraction Design Notes §9 calls
// for: insertion order is preserved for iteration, duplicate keys replace
// the existing value ("last wins") per spec §4.2's documented ambiguity.
type orderedFields struct {
	keys   []string
	values map[string]Value
}

func newOrderedFields() *orderedFields {
	return &orderedFields{values: make(map[string]Value)}
}

func (f *orderedFields) set(key string, v Value) {
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

func (f *orderedFields) Get(key string) (Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *orderedFields) Keys() []string { return f.keys }
func (f *orderedFields) Len() int       { return len(f.keys) }

// utf16beDecoder decodes UTF-16BE without a BOM. Unpaired surrogates are
// not preserved: the x/text decoder turns each into U+FFFD, and so does the
// rune-by-rune fallback in readUnicodeString.
var utf16beDecoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// descriptorParser decodes the OSType grammar (spec §4.2) from a Reader.
type descriptorParser struct {
	r       *Reader
	section string // for error messages
}

func newDescriptorParser(r *Reader, section string) *descriptorParser {
	return &descriptorParser{r: r, section: section}
}

func (p *descriptorParser) fail(kind ErrorKind, format string, args ...interface{}) error {
	base := fmt.Errorf(format, args...)
	switch kind {
	case ErrOutOfRange:
		return outOfRange(p.section, p.r.Tell(), base)
	case ErrUnimplemented:
		return unimplemented(p.section, p.r.Tell(), base)
	default:
		return malformed(p.section, p.r.Tell(), base)
	}
}

// readUnicodeString implements the UnicodeStr production: a u32 code-unit
// count followed by that many UTF-16BE code units.
func (p *descriptorParser) readUnicodeString() (string, error) {
	n := p.r.U32()
	if n == 0 {
		return "", nil
	}
	raw := p.r.ReadBytes(uint64(n) * 2)
	if !p.r.OK() {
		return "", p.fail(ErrMalformed, "unexpected EOF reading unicode string")
	}
	decoded, err := utf16beDecoder.NewDecoder().Bytes(raw)
	if err != nil {
		// Preserve the raw code units verbatim rather than failing; the
		// decoder is only used for valid-surrogate speedups.
		runes := make([]rune, n)
		for i := uint32(0); i < n; i++ {
			runes[i] = rune(uint16(raw[i*2])<<8 | uint16(raw[i*2+1]))
		}
		return string(runes), nil
	}
	return string(decoded), nil
}

// readKey implements the Key production: a u32 length, which if zero means
// "read a 4-byte fourcc", else "read length ASCII bytes".
func (p *descriptorParser) readKey() (string, error) {
	n := p.r.U32()
	if n == 0 {
		return p.r.ReadString(4), nil
	}
	return p.r.ReadString(int(n)), nil
}

// ParseDescriptor parses a Descriptor body (the Descriptor production minus
// its already-consumed "Objc"/"GlbO" tag): UnicodeStr name, ClassMeta, then
// n Key/Variable pairs.
func (p *descriptorParser) ParseDescriptor() (Descriptor, error) {
	name, err := p.readUnicodeString()
	if err != nil {
		return Descriptor{}, err
	}
	class, err := p.parseClassMeta()
	if err != nil {
		return Descriptor{}, err
	}
	count := p.r.U32()
	fields := newOrderedFields()
	for i := uint32(0); i < count; i++ {
		key, err := p.readKey()
		if err != nil {
			return Descriptor{}, err
		}
		val, err := p.parseVariable()
		if err != nil {
			return Descriptor{}, fmt.Errorf("key %q: %w", key, err)
		}
		fields.set(key, val)
	}
	return Descriptor{Name: name, Class: class, Fields: fields}, nil
}

func (p *descriptorParser) parseClassMeta() (ClassMeta, error) {
	name, err := p.readUnicodeString()
	if err != nil {
		return ClassMeta{}, err
	}
	id, err := p.readKey()
	if err != nil {
		return ClassMeta{}, err
	}
	return ClassMeta{Name: name, ID: id}, nil
}

// parseVariable implements the Variable production: a u32 osTypeKey
// followed by that kind's body.
func (p *descriptorParser) parseVariable() (Value, error) {
	tag := p.r.ReadString(4)
	return p.parseBody(tag)
}

func (p *descriptorParser) parseBody(tag string) (Value, error) {
	switch tag {
	case "Objc", "GlbO":
		d, err := p.ParseDescriptor()
		return d, err
	case "VlLs":
		return p.parseList()
	case "obj ":
		return p.parseReference()
	case "doub":
		return Double(p.r.F64()), nil
	case "UntF":
		return p.parseUnitFloat()
	case "TEXT":
		s, err := p.readUnicodeString()
		return String(s), err
	case "enum":
		return p.parseEnum()
	case "long":
		return Long(p.r.I32()), nil
	case "comp":
		return LargeInteger(p.r.I64()), nil
	case "bool":
		return Boolean(p.r.U8() != 0), nil
	case "type", "GlbC":
		c, err := p.parseClassMeta()
		return ClassType(c), err
	case "alis":
		n := p.r.U32()
		return Alias(p.r.ReadBytes(uint64(n))), nil
	case "tdta":
		n := p.r.U32()
		return RawData(p.r.ReadBytes(uint64(n))), nil
	default:
		return nil, p.fail(ErrMalformed, "unknown OSType key %q", tag)
	}
}

func (p *descriptorParser) parseList() (List, error) {
	n := p.r.U32()
	items := make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := p.parseVariable()
		if err != nil {
			return List{}, fmt.Errorf("list item %d: %w", i, err)
		}
		items = append(items, v)
	}
	return List{Items: items}, nil
}

func (p *descriptorParser) parseEnum() (Enumerated, error) {
	typeKey, err := p.readKey()
	if err != nil {
		return Enumerated{}, err
	}
	valueKey, err := p.readKey()
	if err != nil {
		return Enumerated{}, err
	}
	return Enumerated{Type: typeKey, Value: valueKey}, nil
}

func (p *descriptorParser) parseUnitFloat() (UnitFloat, error) {
	tag := p.r.ReadString(4)
	unit, ok := unitKindByTag[tag]
	if !ok {
		return UnitFloat{}, p.fail(ErrMalformed, "unknown unit tag %q", tag)
	}
	return UnitFloat{Unit: unit, Value: p.r.F64()}, nil
}

func (p *descriptorParser) parseReference() (Reference, error) {
	n := p.r.U32()
	items := make([]ReferenceItem, 0, n)
	for i := uint32(0); i < n; i++ {
		tag := p.r.ReadString(4)
		item, err := p.parseReferenceItem(tag)
		if err != nil {
			return Reference{}, fmt.Errorf("reference item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return Reference{Items: items}, nil
}

func (p *descriptorParser) parseReferenceItem(tag string) (ReferenceItem, error) {
	switch tag {
	case "prop":
		class, err := p.parseClassMeta()
		if err != nil {
			return ReferenceItem{}, err
		}
		key, err := p.readKey()
		if err != nil {
			return ReferenceItem{}, err
		}
		return ReferenceItem{Kind: RefProperty, Class: class, Key: key}, nil
	case "Clss":
		class, err := p.parseClassMeta()
		if err != nil {
			return ReferenceItem{}, err
		}
		return ReferenceItem{Kind: RefClass, Class: class}, nil
	case "Enmr":
		class, err := p.parseClassMeta()
		if err != nil {
			return ReferenceItem{}, err
		}
		enum, err := p.parseEnum()
		if err != nil {
			return ReferenceItem{}, err
		}
		return ReferenceItem{Kind: RefEnum, Class: class, Enum: enum}, nil
	case "rele":
		return ReferenceItem{Kind: RefOffset, Index: p.r.I32()}, nil
	case "Idnt", "indx", "name":
		return ReferenceItem{}, p.fail(ErrMalformed, "reference item kind %q has no documented body grammar", tag)
	default:
		return ReferenceItem{}, p.fail(ErrMalformed, "unknown reference item kind %q", tag)
	}
}

// ParseTopLevelDescriptor reads the descriptor-format-version sentinel (must
// be 16) and then a Descriptor body, as used by every descriptor-bearing
// resource ID and additional-layer-info block in spec §4.4.
func ParseTopLevelDescriptor(r *Reader, section string) (Descriptor, error) {
	p := newDescriptorParser(r, section)
	version := r.U32()
	if version != 16 {
		return Descriptor{}, p.fail(ErrMalformed, "descriptor format version %d, want 16", version)
	}
	return p.ParseDescriptor()
}
