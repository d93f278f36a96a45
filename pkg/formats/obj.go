package formats

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
)

// OBJWriter writes generated meshes as Wavefront OBJ objects. Vertex
// numbering continues across meshes so several can share one file.
type OBJWriter struct {
	w      *bufio.Writer
	offset int
	err    error
}

// NewOBJWriter wraps w. Call Flush when done.
func NewOBJWriter(w io.Writer) *OBJWriter {
	return &OBJWriter{w: bufio.NewWriter(w)}
}

func (o *OBJWriter) printf(format string, args ...any) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, format, args...)
}

// WriteMesh appends m as object name. Each sub-mesh becomes a
// "usemtl material<N>" group.
func (o *OBJWriter) WriteMesh(name string, m *extrude.GeneratedMesh) error {
	o.printf("o %s\n", name)
	for _, v := range m.Vertices {
		o.printf("v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	for _, v := range m.Vertices {
		o.printf("vt %g %g\n", v.UV0.X, v.UV0.Y)
	}
	for _, v := range m.Vertices {
		o.printf("vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
	}
	for _, sm := range m.SubMeshes {
		o.printf("usemtl material%d\n", sm.Material)
		idx := m.Indices[sm.StartIndex : sm.StartIndex+sm.IndexCount]
		for t := 0; t+2 < len(idx); t += 3 {
			a := int(idx[t]) + o.offset + 1
			b := int(idx[t+1]) + o.offset + 1
			c := int(idx[t+2]) + o.offset + 1
			o.printf("f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
	}
	o.offset += len(m.Vertices)
	return o.err
}

// Flush writes any buffered data.
func (o *OBJWriter) Flush() error {
	if o.err != nil {
		return o.err
	}
	return o.w.Flush()
}

// WriteOBJ writes a single mesh.
func WriteOBJ(w io.Writer, name string, m *extrude.GeneratedMesh) error {
	o := NewOBJWriter(w)
	if err := o.WriteMesh(name, m); err != nil {
		return err
	}
	return o.Flush()
}
