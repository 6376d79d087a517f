package gjk

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
)

// Test helper functions

func createSphere(position mgl64.Vec3, radius float64) *actor.Sphere {
	return actor.NewSphere(actor.NewTransformAt(position), radius)
}

func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.AABB {
	return actor.NewAABB(actor.NewTransformAt(position), halfExtents.Mul(-1), halfExtents)
}

func createCapsule(position mgl64.Vec3, halfHeight, radius float64) *actor.Capsule {
	return actor.NewCapsule(actor.NewTransformAt(position), mgl64.Vec3{0, -halfHeight, 0}, mgl64.Vec3{0, halfHeight, 0}, radius)
}

func createTetrahedron(t *testing.T, position mgl64.Vec3) *actor.Polygon {
	t.Helper()

	p, err := actor.NewPolygon(actor.NewTransformAt(position), []mgl64.Vec3{
		{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1},
	})
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	return p
}

func towards(a, b actor.Shape) mgl64.Vec3 {
	return b.Center().Sub(a.Center())
}

func TestMinkowskiSupport(t *testing.T) {
	t.Run("two separated spheres along x-axis", func(t *testing.T) {
		a := createSphere(mgl64.Vec3{0, 0, 0}, 1.0)
		b := createSphere(mgl64.Vec3{3, 0, 0}, 1.0)

		support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})

		// max(A.x) - min(B.x) = 1 - 2 = -1
		if support.X() != -1 {
			t.Errorf("Expected support.X = -1, got %v", support.X())
		}
	})

	t.Run("two overlapping spheres", func(t *testing.T) {
		a := createSphere(mgl64.Vec3{0, 0, 0}, 1.0)
		b := createSphere(mgl64.Vec3{1.5, 0, 0}, 1.0)

		support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
		if support.X() != 0.5 {
			t.Errorf("Expected support.X = 0.5, got %v", support.X())
		}
	})

	t.Run("zero components are nudged", func(t *testing.T) {
		a := createSphere(mgl64.Vec3{0, 0, 0}, 1.0)
		b := createSphere(mgl64.Vec3{1.5, 0, 0}, 1.0)

		support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
		if support.Y() == 0 {
			t.Error("Expected exactly-zero Y to be nudged")
		}
	})

	t.Run("witness lies on A", func(t *testing.T) {
		a := createSphere(mgl64.Vec3{0, 0, 0}, 1.0)
		b := createSphere(mgl64.Vec3{5, 0, 0}, 1.0)

		p := Support(a, b, mgl64.Vec3{0, 1, 0})
		if math.Abs(p.SupportA.Len()-1) > 1e-12 {
			t.Errorf("Expected witness on the unit sphere, got %v", p.SupportA)
		}
	})
}

func TestGJK(t *testing.T) {
	tests := []struct {
		name     string
		a, b     func(t *testing.T) actor.Shape
		expected bool
	}{
		{
			name:     "overlapping spheres",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{1.5, 0, 0}, 1) },
			expected: true,
		},
		{
			name:     "separated spheres",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{2.5, 0, 0}, 1) },
			expected: false,
		},
		{
			name:     "concentric spheres",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1) },
			expected: true,
		},
		{
			name:     "diagonal overlap",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{1, 1, 1}, 1) },
			expected: true,
		},
		{
			name:     "overlapping boxes",
			a:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}) },
			b:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}) },
			expected: true,
		},
		{
			name:     "separated boxes",
			a:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}) },
			b:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0.5, 0.5, 0.5}) },
			expected: false,
		},
		{
			name:     "box containing box",
			a:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}) },
			b:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{}, mgl64.Vec3{5, 5, 5}) },
			expected: true,
		},
		{
			name:     "sphere resting into box",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{0, 1.4, 0}, 0.5) },
			b:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}) },
			expected: true,
		},
		{
			name:     "capsule beside sphere",
			a:        func(t *testing.T) actor.Shape { return createCapsule(mgl64.Vec3{}, 1, 0.5) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{1.2, 0.8, 0}, 0.5) },
			expected: false,
		},
		{
			name:     "capsule touching sphere",
			a:        func(t *testing.T) actor.Shape { return createCapsule(mgl64.Vec3{}, 1, 0.5) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{0.8, 0.8, 0}, 0.5) },
			expected: true,
		},
		{
			name:     "polygon against box",
			a:        func(t *testing.T) actor.Shape { return createTetrahedron(t, mgl64.Vec3{}) },
			b:        func(t *testing.T) actor.Shape { return createBox(mgl64.Vec3{1.2, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}) },
			expected: true,
		},
		{
			name:     "polygon far from polygon",
			a:        func(t *testing.T) actor.Shape { return createTetrahedron(t, mgl64.Vec3{}) },
			b:        func(t *testing.T) actor.Shape { return createTetrahedron(t, mgl64.Vec3{0, 0, 5}) },
			expected: false,
		},
		{
			name:     "very large spheres",
			a:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{}, 1000) },
			b:        func(t *testing.T) actor.Shape { return createSphere(mgl64.Vec3{1500, 0, 0}, 1000) },
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.a(t), tt.b(t)
			simplex := &Simplex{}

			result := GJK(a, b, simplex, towards(a, b))
			if result != tt.expected {
				t.Errorf("GJK() = %v, want %v", result, tt.expected)
			}
			if result && simplex.Count != 4 {
				t.Errorf("Expected a tetrahedron on collision, got %d points", simplex.Count)
			}

			// the answer does not depend on the order of the shapes
			if reversed := GJK(b, a, simplex, towards(b, a)); reversed != tt.expected {
				t.Errorf("GJK(b, a) = %v, want %v", reversed, tt.expected)
			}
		})
	}
}

func TestGJK_FarApartTerminatesQuickly(t *testing.T) {
	a := createSphere(mgl64.Vec3{}, 1)
	b := createSphere(mgl64.Vec3{10, 0, 0}, 1)
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)

	if GJK(a, b, simplex, towards(a, b)) {
		t.Fatal("Expected no collision for spheres 10 units apart")
	}
	if simplex.Iterations > 3 {
		t.Errorf("Expected separation within 3 support queries, took %d", simplex.Iterations)
	}
}

func TestGJK_ZeroDirection(t *testing.T) {
	a := createSphere(mgl64.Vec3{}, 1)
	b := createSphere(mgl64.Vec3{0.5, 0, 0}, 1)

	if !GJK(a, b, &Simplex{}, mgl64.Vec3{}) {
		t.Error("Expected collision with the fallback search direction")
	}
}

func TestGJK_Witnesses(t *testing.T) {
	a := createSphere(mgl64.Vec3{}, 1)
	b := createSphere(mgl64.Vec3{1.5, 0, 0}, 1)
	simplex := &Simplex{}

	if !GJK(a, b, simplex, towards(a, b)) {
		t.Fatal("Expected collision")
	}

	for i := 0; i < simplex.Count; i++ {
		p := simplex.Points[i]
		if math.Abs(p.SupportA.Len()-1) > 1e-9 {
			t.Errorf("witness %d not on A: %v", i, p.SupportA)
		}
		// the point of B is the witness minus the difference, on B's surface
		onB := p.SupportA.Sub(p.Point)
		if math.Abs(onB.Sub(b.Center()).Len()-1) > 1e-4 {
			t.Errorf("point %d does not come from B: %v", i, onB)
		}
	}
}

func TestLine(t *testing.T) {
	t.Run("origin beside the segment", func(t *testing.T) {
		simplex := Simplex{Count: 2}
		simplex.Points[0].Point = mgl64.Vec3{1, 1, 0}
		simplex.Points[1].Point = mgl64.Vec3{-1, 1, 0}
		var direction mgl64.Vec3

		if line(&simplex, &direction) {
			t.Fatal("a line never contains the origin")
		}
		if simplex.Count != 2 {
			t.Errorf("Expected both points kept, got %d", simplex.Count)
		}
		if direction.Normalize().Sub(mgl64.Vec3{0, -1, 0}).Len() > 1e-12 {
			t.Errorf("Expected direction toward origin (0,-1,0), got %v", direction)
		}
	})

	t.Run("origin behind the newest point", func(t *testing.T) {
		simplex := Simplex{Count: 2}
		simplex.Points[0].Point = mgl64.Vec3{2, 0, 0}
		simplex.Points[1].Point = mgl64.Vec3{1, 0, 0}
		var direction mgl64.Vec3

		line(&simplex, &direction)
		if simplex.Count != 1 || simplex.Points[0].Point != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Expected the newest point only, got %+v", simplex)
		}
		if direction != (mgl64.Vec3{-1, 0, 0}) {
			t.Errorf("Expected direction (-1,0,0), got %v", direction)
		}
	})

	t.Run("origin on the segment", func(t *testing.T) {
		simplex := Simplex{Count: 2}
		simplex.Points[0].Point = mgl64.Vec3{1, 0, 0}
		simplex.Points[1].Point = mgl64.Vec3{-1, 0, 0}
		var direction mgl64.Vec3

		line(&simplex, &direction)
		if direction.LenSqr() == 0 {
			t.Fatal("Expected a non-zero search direction")
		}
		if math.Abs(direction.X()) > 1e-12 {
			t.Errorf("Expected a direction perpendicular to the segment, got %v", direction)
		}
	})

	t.Run("identical points", func(t *testing.T) {
		simplex := Simplex{Count: 2}
		simplex.Points[0].Point = mgl64.Vec3{1, 2, 3}
		simplex.Points[1].Point = mgl64.Vec3{1, 2, 3}
		var direction mgl64.Vec3

		line(&simplex, &direction)
		if simplex.Count != 1 {
			t.Errorf("Expected the degenerate line to collapse, got %d points", simplex.Count)
		}
	})
}

func TestTriangle(t *testing.T) {
	t.Run("origin above the face", func(t *testing.T) {
		simplex := Simplex{Count: 3}
		simplex.Points[0].Point = mgl64.Vec3{-1, -1, -1}
		simplex.Points[1].Point = mgl64.Vec3{1, -1, -1}
		simplex.Points[2].Point = mgl64.Vec3{0, 1, -1}
		var direction mgl64.Vec3

		if triangle(&simplex, &direction) {
			t.Fatal("a triangle never contains the origin")
		}
		if simplex.Count != 3 {
			t.Errorf("Expected the full triangle kept, got %d", simplex.Count)
		}
		if direction.Dot(mgl64.Vec3{0, 0, 1}) <= 0 {
			t.Errorf("Expected a direction toward +z, got %v", direction)
		}
	})

	t.Run("origin outside edge AB", func(t *testing.T) {
		simplex := Simplex{Count: 3}
		simplex.Points[0].Point = mgl64.Vec3{3, 3, 0} // C
		simplex.Points[1].Point = mgl64.Vec3{3, 1, 0} // B
		simplex.Points[2].Point = mgl64.Vec3{1, 1, 0} // A, newest
		var direction mgl64.Vec3

		triangle(&simplex, &direction)
		if simplex.Count != 2 {
			t.Fatalf("Expected reduction to edge AB, got %d points", simplex.Count)
		}
		if simplex.Points[1].Point != (mgl64.Vec3{1, 1, 0}) || simplex.Points[0].Point != (mgl64.Vec3{3, 1, 0}) {
			t.Errorf("Expected edge AB kept in order, got %v %v", simplex.Points[0].Point, simplex.Points[1].Point)
		}
		if direction.Y() >= 0 {
			t.Errorf("Expected direction toward -y, got %v", direction)
		}
	})

	t.Run("collinear points", func(t *testing.T) {
		simplex := Simplex{Count: 3}
		simplex.Points[0].Point = mgl64.Vec3{3, 1, 0}
		simplex.Points[1].Point = mgl64.Vec3{2, 1, 0}
		simplex.Points[2].Point = mgl64.Vec3{1, 1, 0}
		var direction mgl64.Vec3

		triangle(&simplex, &direction)
		if simplex.Count > 2 {
			t.Errorf("Expected the collinear triangle to collapse, got %d points", simplex.Count)
		}
	})

	t.Run("witnesses follow their points", func(t *testing.T) {
		simplex := Simplex{Count: 3}
		for i, p := range []mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}} {
			simplex.Points[i] = SupportPoint{Point: p, SupportA: p.Mul(10)}
		}
		var direction mgl64.Vec3

		// origin below: the winding is swapped
		triangle(&simplex, &direction)
		for i := 0; i < simplex.Count; i++ {
			if simplex.Points[i].SupportA != simplex.Points[i].Point.Mul(10) {
				t.Errorf("witness %d detached from its point", i)
			}
		}
	})
}

func TestTetrahedron(t *testing.T) {
	points := []mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}, {0, 0, 1}}

	t.Run("origin inside", func(t *testing.T) {
		simplex := Simplex{Count: 4}
		for i, p := range points {
			simplex.Points[i].Point = p
		}
		var direction mgl64.Vec3

		if !tetrahedron(&simplex, &direction) {
			t.Error("Expected the origin inside")
		}
	})

	t.Run("origin outside", func(t *testing.T) {
		simplex := Simplex{Count: 4}
		for i, p := range points {
			// origin above the apex
			simplex.Points[i].Point = p.Add(mgl64.Vec3{0, 0, -6})
		}
		var direction mgl64.Vec3

		if tetrahedron(&simplex, &direction) {
			t.Error("Expected the origin outside")
		}
		if simplex.Count > 3 {
			t.Errorf("Expected reduction to a face or an edge, got %d points", simplex.Count)
		}
		if direction.Z() <= 0 {
			t.Errorf("Expected a direction toward +z, got %v", direction)
		}
	})

	t.Run("flat tetrahedron", func(t *testing.T) {
		simplex := Simplex{Count: 4}
		for i, p := range []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}, {0.2, 0.1, 0}} {
			simplex.Points[i].Point = p
		}
		var direction mgl64.Vec3

		if tetrahedron(&simplex, &direction) {
			t.Error("Expected a flat tetrahedron not to contain the origin")
		}
		if simplex.Count > 3 {
			t.Errorf("Expected the flat tetrahedron to be reduced, got %d points", simplex.Count)
		}
	})
}

func TestGJK2D(t *testing.T) {
	tests := []struct {
		name     string
		a, b     actor.Shape
		expected bool
	}{
		{"overlapping discs", createSphere(mgl64.Vec3{}, 1), createSphere(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"separated discs", createSphere(mgl64.Vec3{}, 1), createSphere(mgl64.Vec3{0, 2.5, 0}, 1), false},
		{"depth is ignored", createSphere(mgl64.Vec3{}, 1), createSphere(mgl64.Vec3{0.5, 0, 10}, 1), true},
		{"overlapping squares", createBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}), createBox(mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{0.5, 0.5, 0.5}), true},
		{"separated squares", createBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}), createBox(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &Simplex{}
			result := Query(Planar, tt.a, tt.b, simplex, towards(tt.a, tt.b))
			if result != tt.expected {
				t.Errorf("GJK2D() = %v, want %v", result, tt.expected)
			}
			if result {
				if simplex.Count != 3 {
					t.Errorf("Expected a triangle on collision, got %d points", simplex.Count)
				}
				for i := 0; i < simplex.Count; i++ {
					if simplex.Points[i].Point.Z() != 0 {
						t.Errorf("point %d not on the plane: %v", i, simplex.Points[i].Point)
					}
				}
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if Volumetric.String() != "volumetric" || Planar.String() != "planar" {
		t.Errorf("unexpected mode names %q %q", Volumetric, Planar)
	}
}

func BenchmarkGJK_Spheres_Intersecting(b *testing.B) {
	sa := createSphere(mgl64.Vec3{}, 1)
	sb := createSphere(mgl64.Vec3{1.5, 0, 0}, 1)
	simplex := &Simplex{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GJK(sa, sb, simplex, towards(sa, sb))
	}
}

func BenchmarkGJK_Boxes_Separated(b *testing.B) {
	ba := createBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5})
	bb := createBox(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	simplex := &Simplex{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GJK(ba, bb, simplex, towards(ba, bb))
	}
}
