// Package gds reads and writes the subset of the GDSII stream format used
// by wafer layouts: one library of structures holding BOUNDARY elements.
//
// Coordinates are stored as 32-bit integers in database units. A point at
// user coordinate v is written as round(v * unit / precision), where unit
// and precision are the sizes of a user unit and a database unit in metres.
//
// A BOUNDARY may hold at most [MaxVertices] distinct vertices; the format
// stores the closing point explicitly and limits records to 65535 bytes.
package gds
