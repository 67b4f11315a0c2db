// Package geometry provides half-space and polyhedron descriptions in the
// plane, both as numeric predicates and as linear constraints over mip
// expressions.
package geometry
