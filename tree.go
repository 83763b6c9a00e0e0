package psd

// Node is one layer or group in the reconstructed layer tree. Groups carry
// their children in on-disk (bottom-to-top) order; TreeBuilder does not
// reverse them, since "top of the layer list" vs. "top of the stack" is a
// display convention this package leaves to the caller.
type Node struct {
	Layer    *LayerRecord // nil for the synthetic document root
	Children []*Node
}

// IsGroup reports whether this node was built from an open/close-folder
// pair rather than an ordinary layer.
func (n *Node) IsGroup() bool {
	return n.Layer != nil && n.Layer.SectionType == SectionOpenFolder
}

// TreeBuilder is a Delegate that reconstructs the flat, bottom-to-top
// layer list PSD stores on disk into the nested group structure Photoshop
// displays, grounded on the teacher's node.go and layer_mask.go (which
// built this eagerly during parsing); here it is driven purely off
// Delegate events so it composes with any other Decode caller.
//
// Embed NopDelegate so TreeBuilder can be passed directly to Decode and
// still receive scanline/resource callbacks it doesn't override, should a
// caller choose to extend it.
type TreeBuilder struct {
	NopDelegate

	Root *Node

	stack []*Node
}

// NewTreeBuilder returns a TreeBuilder ready to receive Decode's callbacks.
func NewTreeBuilder() *TreeBuilder {
	root := &Node{}
	return &TreeBuilder{Root: root, stack: []*Node{root}}
}

// OnLayersAndMask resets to a fresh root so a single TreeBuilder can be
// reused across nested Lr16/Lr32/Layr recursion without its top-level tree
// leaking into a nested one. The top-level call (the one whose
// LayersInformation the final Decode reports) is what Root reflects when
// decoding finishes; nested layer sets are walked by inspecting
// LayerRecord.Nested directly, since the flat SectionType stack doesn't
// apply across that boundary the same way.
func (t *TreeBuilder) OnLayersAndMask(l *LayersInformation) {
	if l == nil {
		return
	}
	t.Root = &Node{}
	t.stack = []*Node{t.Root}
	for _, layer := range l.Layers {
		t.push(layer)
	}
}

// push files one flat layer record into the tree under construction,
// per PSD's bottom-to-top-list convention: SectionCloseFolder opens a new
// group (the group's own marker record appears after its children in the
// file), SectionOpenFolder closes it back to the parent, and anything else
// is a leaf appended to whatever group is currently open.
func (t *TreeBuilder) push(l *LayerRecord) {
	top := t.stack[len(t.stack)-1]
	node := &Node{Layer: l}

	switch l.SectionType {
	case SectionCloseFolder, SectionBoundingSection:
		top.Children = append(top.Children, node)
		t.stack = append(t.stack, node)
	case SectionOpenFolder:
		top.Children = append(top.Children, node)
		if len(t.stack) > 1 {
			t.stack = t.stack[:len(t.stack)-1]
		}
	default:
		top.Children = append(top.Children, node)
	}
}
