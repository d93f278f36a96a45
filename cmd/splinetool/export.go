package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
	"github.com/Faultbox/midgard-spline/pkg/formats"
)

// writeResults exports every piece, LOD and enabled cap as OBJ objects.
func writeResults(path string, results []extrude.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	o := formats.NewOBJWriter(f)
	for i, r := range results {
		for lod := range r.LODs {
			if err := o.WriteMesh(fmt.Sprintf("piece%d_lod%d", i, lod), &r.LODs[lod]); err != nil {
				return err
			}
		}
		for _, c := range []struct {
			name string
			cap  extrude.CapPlacement
		}{{"start", r.StartCap}, {"end", r.EndCap}} {
			if !c.cap.Enabled {
				continue
			}
			m := c.cap.Transformed()
			if err := o.WriteMesh(fmt.Sprintf("piece%d_%s_cap", i, c.name), &m); err != nil {
				return err
			}
		}
	}
	if err := o.Flush(); err != nil {
		return err
	}
	return f.Close()
}
