// Package formats reads and writes the binary files used around the spline
// engine: spline records (SPLN), terrain height grids (HGRD), and Wavefront
// OBJ export of generated meshes.
package formats
