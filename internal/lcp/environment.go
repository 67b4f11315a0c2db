package lcp

import (
	"fmt"

	"github.com/san-kum/lcpsim/internal/geometry"
)

// Obstacle is a solid region with one contact face. Face is the half-space
// on the obstacle's side, so its normal points out into free space and
// Face.Eval(tip) is the separation of the tip from the face.
type Obstacle struct {
	Name     string
	Interior geometry.Polyhedron
	Face     geometry.HalfSpace
}

func NewObstacle(name string, interior geometry.Polyhedron, face geometry.HalfSpace) (Obstacle, error) {
	if err := interior.Validate(2); err != nil {
		return Obstacle{}, fmt.Errorf("obstacle %s interior: %w", name, err)
	}
	if face.Dim() != 2 {
		return Obstacle{}, fmt.Errorf("obstacle %s face: %w: dimension %d", name, ErrDimensionMismatch, face.Dim())
	}
	if _, err := ContactBasis(face.Normal, 0); err != nil {
		return Obstacle{}, fmt.Errorf("obstacle %s: %w", name, err)
	}
	return Obstacle{
		Name:     name,
		Interior: geometry.Polyhedron{Faces: append([]geometry.HalfSpace(nil), interior.Faces...)},
		Face:     geometry.NewHalfSpace(face.Normal, face.Offset),
	}, nil
}

// Environment is a fixed set of obstacles and the free regions the leg tip
// must stay in. With no free regions the tip is unconstrained.
type Environment struct {
	Obstacles   []Obstacle
	FreeRegions []geometry.Polyhedron
}

func NewEnvironment(obstacles []Obstacle, free []geometry.Polyhedron) (Environment, error) {
	for i, region := range free {
		if err := region.Validate(2); err != nil {
			return Environment{}, fmt.Errorf("free region %d: %w", i, err)
		}
	}
	return Environment{
		Obstacles:   append([]Obstacle(nil), obstacles...),
		FreeRegions: append([]geometry.Polyhedron(nil), free...),
	}, nil
}

// Empty has no obstacles and no free-region constraint.
func Empty() Environment {
	return Environment{}
}

func ground(name string, h float64) Obstacle {
	face := geometry.NewHalfSpace([]float64{0, 1}, h)
	return Obstacle{Name: name, Interior: geometry.Polyhedron{Faces: []geometry.HalfSpace{face}}, Face: face}
}

func wall(name string, x float64) Obstacle {
	face := geometry.NewHalfSpace([]float64{-1, 0}, -x)
	return Obstacle{Name: name, Interior: geometry.Polyhedron{Faces: []geometry.HalfSpace{face}}, Face: face}
}

// FlatGround is the floor y <= h with the tip kept above it.
func FlatGround(h float64) Environment {
	return Environment{
		Obstacles: []Obstacle{ground("ground", h)},
		FreeRegions: []geometry.Polyhedron{
			{Faces: []geometry.HalfSpace{geometry.NewHalfSpace([]float64{0, -1}, -h)}},
		},
	}
}

// Wall is the solid x >= x0 with the tip kept left of it.
func Wall(x0 float64) Environment {
	return Environment{
		Obstacles: []Obstacle{wall("wall", x0)},
		FreeRegions: []geometry.Polyhedron{
			{Faces: []geometry.HalfSpace{geometry.NewHalfSpace([]float64{1, 0}, x0)}},
		},
	}
}

// GroundAndWall is the corner formed by the floor y <= h and the wall x >= x0.
func GroundAndWall(h, x0 float64) Environment {
	return Environment{
		Obstacles: []Obstacle{ground("ground", h), wall("wall", x0)},
		FreeRegions: []geometry.Polyhedron{{Faces: []geometry.HalfSpace{
			geometry.NewHalfSpace([]float64{0, -1}, -h),
			geometry.NewHalfSpace([]float64{1, 0}, x0),
		}}},
	}
}

// Terrace is a floor at height 0 for x <= x0 and at height h beyond. The
// tip must lie above whichever floor it is over, which makes the free space
// a union of two regions.
func Terrace(x0, h float64) Environment {
	return Environment{
		Obstacles: []Obstacle{ground("lower", 0), ground("upper", h)},
		FreeRegions: []geometry.Polyhedron{
			{Faces: []geometry.HalfSpace{
				geometry.NewHalfSpace([]float64{1, 0}, x0),
				geometry.NewHalfSpace([]float64{0, -1}, 0),
			}},
			{Faces: []geometry.HalfSpace{
				geometry.NewHalfSpace([]float64{-1, 0}, -x0),
				geometry.NewHalfSpace([]float64{0, -1}, -h),
			}},
		},
	}
}

// Free reports whether the tip p lies in some free region.
func (e Environment) Free(p []float64, tol float64) (bool, error) {
	if len(e.FreeRegions) == 0 {
		return true, nil
	}
	for _, region := range e.FreeRegions {
		ok, err := region.Contains(p, tol)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
