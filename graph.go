package nvp

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// ToDot renders the flow's architecture as a graphviz digraph: one node per
// coupling layer labelled with its name and mask, chained in forward order,
// with nested stacks grouped as clusters.
func ToDot(s *Stack) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("flow"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	var prev string
	var walk func(parent string, s *Stack) error
	walk = func(parent string, s *Stack) error {
		for i, t := range s.Members() {
			switch tt := t.(type) {
			case *CouplingLayer:
				attrs := map[string]string{
					"fontname": "Monaco",
					"shape":    "record",
					"label":    fmt.Sprintf(`"%s|mask %s"`, tt.Name(), tt.Mask()),
				}
				if err := g.AddNode(parent, tt.Name(), attrs); err != nil {
					return errors.WithStack(err)
				}
				if prev != "" {
					if err := g.AddEdge(prev, tt.Name(), true, nil); err != nil {
						return errors.WithStack(err)
					}
				}
				prev = tt.Name()
			case *Stack:
				cluster := fmt.Sprintf("cluster_%s_%d", parent, i)
				if err := g.AddSubGraph(parent, cluster, nil); err != nil {
					return errors.WithStack(err)
				}
				if err := walk(cluster, tt); err != nil {
					return err
				}
			default:
				node := fmt.Sprintf("t_%s_%d", parent, i)
				if err := g.AddNode(parent, node, map[string]string{"shape": "box"}); err != nil {
					return errors.WithStack(err)
				}
				if prev != "" {
					if err := g.AddEdge(prev, node, true, nil); err != nil {
						return errors.WithStack(err)
					}
				}
				prev = node
			}
		}
		return nil
	}
	if err := walk("flow", s); err != nil {
		return "", err
	}
	return g.String(), nil
}
