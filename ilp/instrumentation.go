package ilp

import (
	"fmt"
	"io"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/mip"
)

// TreeLogger records one entry per subproblem node visited during a solve,
// for later export as a DOT-file visualisation of the enumeration tree.
// Ported from the teacher's instrumentation.go (its TreeLogger/node/
// BnbMiddleware trio), generalized from the teacher's single fixed
// ProcessDecision/NewSubProblem hook onto the mip.Callback event stream.
type TreeLogger struct {
	nodes map[ies.NodeHandle]*loggedNode
}

// loggedNode mirrors the teacher's node struct, one entry per subproblem.
type loggedNode struct {
	id, parent ies.NodeHandle
	z          float64
	solved     bool
	outcome    string
}

// NewTreeLogger returns an empty TreeLogger, ready to pass to
// Problem.WithTreeLogger.
func NewTreeLogger() *TreeLogger {
	return &TreeLogger{nodes: make(map[ies.NodeHandle]*loggedNode)}
}

func (t *TreeLogger) observe(ctx *mip.Context, ev mip.Event) {
	switch ev {
	case mip.BeginSub:
		n := ctx.Node()
		if _, seen := t.nodes[n]; seen {
			return
		}
		var parent ies.NodeHandle
		if node := ctx.Tree().IES.Node(n); node != nil {
			parent = node.Parent()
		}
		t.nodes[n] = &loggedNode{id: n, parent: parent}
	case mip.Bingo:
		if ln, ok := t.nodes[ctx.Node()]; ok {
			ln.solved = true
			ln.z = ctx.ObjValue()
			ln.outcome = "incumbent"
		}
	case mip.Reject:
		if ln, ok := t.nodes[ctx.Node()]; ok {
			ln.solved = true
			ln.outcome = "fathomed"
		}
	}
}

// ToDOT writes a Graphviz DOT rendering of the recorded tree to out.
func (t *TreeLogger) ToDOT(out io.Writer) {
	writeRow := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	writeRow("digraph enumtree {")
	writeRow("node [fontname=Courier,shape=rectangle];")
	writeRow("edge [color=Blue, style=dashed];")

	for id, n := range t.nodes {
		color, label := "Pink", "unsolved"
		if n.solved {
			switch n.outcome {
			case "incumbent":
				color = "Green"
				label = fmt.Sprintf("Z=%.2f id:%d incumbent", n.z, id)
			case "fathomed":
				color = "Gray"
				label = fmt.Sprintf("id:%d fathomed", id)
			}
		}
		writeRow("%d [label=\"%s\",color=%s];", id, label, color)
	}

	for id, n := range t.nodes {
		if n.parent == 0 || n.parent == id {
			continue
		}
		writeRow("%d -> %d ;", n.parent, id)
	}

	writeRow("}")
}
