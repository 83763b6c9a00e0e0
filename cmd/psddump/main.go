// Command psddump decodes a PSD/PSB file and prints a JSON trace of the
// section and layer events the decoder reports, for manual inspection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	psdcore "github.com/layervault/psdcore"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("psddump", flag.ContinueOnError)
	tree := fs.Bool("tree", false, "print the reconstructed layer tree instead of the flat event trace")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: psddump [-tree] <file.psd|file.psb>")
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "psddump: %v\n", err)
		return 1
	}
	defer f.Close()

	src := psdcore.NewFileSource(f)

	if *tree {
		tb := psdcore.NewTreeBuilder()
		if err := psdcore.Decode(src, tb); err != nil {
			fmt.Fprintf(os.Stderr, "psddump: %v\n", err)
			return 1
		}
		return printJSON(treeJSON(tb.Root))
	}

	trace := &eventTrace{}
	if err := psdcore.Decode(src, trace); err != nil {
		fmt.Fprintf(os.Stderr, "psddump: %v\n", err)
		return 1
	}
	return printJSON(trace)
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "psddump: %v\n", err)
		return 1
	}
	return 0
}

// eventTrace is a Delegate that records the header, the image resources,
// the animation frames and a summary of each finished layer, in the order
// Decode reports them, for -tree=false output. Other callbacks are ignored.
type eventTrace struct {
	psdcore.NopDelegate

	Header         *psdcore.Header          `json:"header,omitempty"`
	ImageResources []imageResourceSummary   `json:"imageResources,omitempty"`
	Frames         []psdcore.AnimationFrame `json:"frames,omitempty"`
	Layers         []layerSummary           `json:"layers,omitempty"`
}

type imageResourceSummary struct {
	ID   uint16 `json:"id"`
	Name string `json:"name,omitempty"`
}

type layerSummary struct {
	Name      string `json:"name"`
	BlendMode string `json:"blendMode"`
	Width     int32  `json:"width"`
	Height    int32  `json:"height"`
	Visible   bool   `json:"visible"`
}

func (t *eventTrace) OnFileHeader(h *psdcore.Header) { t.Header = h }

func (t *eventTrace) OnImageResource(r *psdcore.ImageResource) {
	t.ImageResources = append(t.ImageResources, imageResourceSummary{ID: r.ID, Name: r.Name})
}

func (t *eventTrace) OnFramesData(frames []psdcore.AnimationFrame, activeIndex int) {
	t.Frames = frames
}

func (t *eventTrace) OnEndLayer(l *psdcore.LayerRecord) {
	t.Layers = append(t.Layers, layerSummary{
		Name:      l.Name,
		BlendMode: psdcore.BlendModeName(l.BlendMode),
		Width:     l.Width(),
		Height:    l.Height(),
		Visible:   l.Visible(),
	})
}

type treeNode struct {
	Name     string      `json:"name,omitempty"`
	Group    bool        `json:"group,omitempty"`
	Children []*treeNode `json:"children,omitempty"`
}

func treeJSON(n *psdcore.Node) *treeNode {
	if n == nil {
		return nil
	}
	out := &treeNode{Group: n.IsGroup()}
	if n.Layer != nil {
		out.Name = n.Layer.Name
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, treeJSON(c))
	}
	return out
}
