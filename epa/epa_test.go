package epa

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/gjk"
)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) <= tolerance &&
		math.Abs(a.Y()-b.Y()) <= tolerance &&
		math.Abs(a.Z()-b.Z()) <= tolerance
}

func isNormalized(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v.Len()-1) <= tolerance
}

func createSphere(position mgl64.Vec3, radius float64) *actor.Sphere {
	return actor.NewSphere(actor.NewTransformAt(position), radius)
}

func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.AABB {
	return actor.NewAABB(actor.NewTransformAt(position), halfExtents.Mul(-1), halfExtents)
}

// inflating grows every time it is queried, so its boundary is never reached
type inflating struct {
	*actor.Sphere
	radius float64
}

func (s *inflating) Support(direction mgl64.Vec3) mgl64.Vec3 {
	s.radius += 0.01
	return s.Center().Add(direction.Normalize().Mul(s.radius))
}

func runGJK(t *testing.T, a, b actor.Shape) *gjk.Simplex {
	t.Helper()

	simplex := &gjk.Simplex{}
	if !gjk.GJK(a, b, simplex, b.Center().Sub(a.Center())) {
		t.Fatal("GJK did not detect the collision")
	}

	return simplex
}

// TestSnapNormalToAxis tests the normal snapping function for numerical stability
func TestSnapNormalToAxis(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{
			name:     "small_x_component",
			input:    mgl64.Vec3{1e-9, 1.0, 0.0},
			expected: mgl64.Vec3{0.0, 1.0, 0.0},
		},
		{
			name:     "small_z_component",
			input:    mgl64.Vec3{0.0, -1.0, 1e-9},
			expected: mgl64.Vec3{0.0, -1.0, 0.0},
		},
		{
			name:     "diagonal_normal",
			input:    mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(),
			expected: mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(),
		},
		{
			name:     "near_zero_vector",
			input:    mgl64.Vec3{1e-9, 1e-9, 1e-9},
			expected: mgl64.Vec3{0.0, 1.0, 0.0}, // Default fallback
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := snapNormalToAxis(tt.input)

			if !vec3ApproxEqual(result, tt.expected, 1e-6) {
				t.Errorf("snapNormalToAxis(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if !isNormalized(result, 1e-6) {
				t.Errorf("result is not normalized: length = %v", result.Len())
			}
		})
	}
}

func TestEPA(t *testing.T) {
	tests := []struct {
		name    string
		a, b    actor.Shape
		normal  mgl64.Vec3
		depth   float64
		contact func(c mgl64.Vec3) bool
	}{
		{
			name:   "unit spheres",
			a:      createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:      createSphere(mgl64.Vec3{1.5, 0, 0}, 1),
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.5,
			contact: func(c mgl64.Vec3) bool {
				return c.Sub(mgl64.Vec3{1, 0, 0}).Len() < 0.05
			},
		},
		{
			name:   "unit boxes",
			a:      createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			b:      createBox(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.5,
			contact: func(c mgl64.Vec3) bool {
				return math.Abs(c.X()-0.5) < 1e-6
			},
		},
		{
			name:   "sphere on floor",
			a:      createSphere(mgl64.Vec3{0, 0.95, 0}, 0.5),
			b:      createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0.5, 5}),
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.05,
			contact: func(c mgl64.Vec3) bool {
				return c.Sub(mgl64.Vec3{0, 0.45, 0}).Len() < 0.05
			},
		},
		{
			name:   "box below box",
			a:      createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			b:      createBox(mgl64.Vec3{0.1, 0.8, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.2,
			contact: func(c mgl64.Vec3) bool {
				return math.Abs(c.Y()-0.5) < 1e-6
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EPA(tt.a, tt.b, runGJK(t, tt.a, tt.b))
			if err != nil {
				t.Fatalf("EPA failed: %v", err)
			}

			if !isNormalized(result.Normal, 1e-9) {
				t.Errorf("normal %v is not a unit vector", result.Normal)
			}
			if result.Normal.Dot(tt.normal) < 0.999 {
				t.Errorf("normal = %v, want %v", result.Normal, tt.normal)
			}
			if math.Abs(result.PenetrationDepth-tt.depth) > 1e-3 {
				t.Errorf("depth = %v, want %v", result.PenetrationDepth, tt.depth)
			}
			if !tt.contact(result.ContactPoint) {
				t.Errorf("unexpected contact point %v", result.ContactPoint)
			}
		})
	}
}

func TestEPA_OrderReversesNormal(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	b := createBox(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})

	ab, err := EPA(a, b, runGJK(t, a, b))
	if err != nil {
		t.Fatalf("EPA(a, b) failed: %v", err)
	}
	ba, err := EPA(b, a, runGJK(t, b, a))
	if err != nil {
		t.Fatalf("EPA(b, a) failed: %v", err)
	}

	if !vec3ApproxEqual(ab.Normal, ba.Normal.Mul(-1), 1e-6) {
		t.Errorf("normals %v and %v are not opposite", ab.Normal, ba.Normal)
	}
	if math.Abs(ab.PenetrationDepth-ba.PenetrationDepth) > 1e-6 {
		t.Errorf("depths %v and %v differ", ab.PenetrationDepth, ba.PenetrationDepth)
	}
}

func TestEPA_Witnesses(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	b := createBox(mgl64.Vec3{0.1, 0.8, 0}, mgl64.Vec3{0.5, 0.5, 0.5})

	result, err := EPA(a, b, runGJK(t, a, b))
	if err != nil {
		t.Fatalf("EPA failed: %v", err)
	}

	// the supporting triangle lies on A's top face
	for _, w := range []mgl64.Vec3{result.A, result.B, result.C} {
		if math.Abs(w.Y()-0.5) > 1e-6 {
			t.Errorf("witness %v is not on the top face of A", w)
		}
	}
}

func TestEPA_NotConverged(t *testing.T) {
	a := &inflating{Sphere: createSphere(mgl64.Vec3{}, 1), radius: 1}
	b := createSphere(mgl64.Vec3{0.5, 0, 0}, 1)

	simplex := &gjk.Simplex{}
	if !gjk.GJK(a, b, simplex, mgl64.Vec3{1, 0, 0}) {
		t.Fatal("GJK did not detect the collision")
	}

	_, err := EPA(a, b, simplex)
	if !errors.Is(err, ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}

	// the closest face is only accepted at the cap when its gap is under MaxError
	var gap float64
	var iterations int
	if _, scanErr := fmt.Sscanf(err.Error(), "gap %g after %d iterations", &gap, &iterations); scanErr != nil {
		t.Fatalf("unexpected error message %q: %v", err, scanErr)
	}
	if iterations != MaxIterations {
		t.Errorf("gave up after %d iterations, want %d", iterations, MaxIterations)
	}
	if gap <= MaxError {
		t.Errorf("gap = %g, want above %g", gap, MaxError)
	}
}

func TestEPA_DegenerateSimplex(t *testing.T) {
	// two points: the Minkowski difference has no volume
	a := createSphere(mgl64.Vec3{}, 0)
	b := createSphere(mgl64.Vec3{}, 0)

	simplex := &gjk.Simplex{}
	simplex.Points[0] = gjk.Support(a, b, mgl64.Vec3{1, 0, 0})
	simplex.Count = 1

	_, err := EPA(a, b, simplex)
	if !errors.Is(err, ErrDegenerateSimplex) {
		t.Errorf("expected ErrDegenerateSimplex, got %v", err)
	}
}

func TestCompleteSimplex(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	b := createBox(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})

	for count := 0; count < 4; count++ {
		simplex := &gjk.Simplex{}
		for _, direction := range []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 0, -1}}[:min(count, 3)] {
			simplex.Points[simplex.Count] = gjk.Support(a, b, direction)
			simplex.Count++
		}

		if err := completeSimplex(a, b, simplex); err != nil {
			t.Fatalf("completeSimplex from %d points failed: %v", count, err)
		}
		if simplex.Count != 4 {
			t.Fatalf("expected 4 points, got %d", simplex.Count)
		}

		p := simplex.Points
		volume := p[1].Point.Sub(p[0].Point).Dot(p[2].Point.Sub(p[0].Point).Cross(p[3].Point.Sub(p[0].Point)))
		if math.Abs(volume) < 1e-9 {
			t.Errorf("completed simplex from %d points is flat", count)
		}
	}
}

func TestEPA2D(t *testing.T) {
	tests := []struct {
		name   string
		a, b   actor.Shape
		normal mgl64.Vec3
		depth  float64
	}{
		{"discs", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{1.5, 0, 0}, 1), mgl64.Vec3{-1, 0, 0}, 0.5},
		{"discs ignore depth", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{0, 1.8, 4}, 1), mgl64.Vec3{0, -1, 0}, 0.2},
		{"squares", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}), createBox(mgl64.Vec3{0.7, 0.1, 0}, mgl64.Vec3{0.5, 0.5, 0.5}), mgl64.Vec3{-1, 0, 0}, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &gjk.Simplex{}
			if !gjk.Query(gjk.Planar, tt.a, tt.b, simplex, tt.b.Center().Sub(tt.a.Center())) {
				t.Fatal("GJK2D did not detect the collision")
			}

			result, err := EPA2D(tt.a, tt.b, simplex)
			if err != nil {
				t.Fatalf("EPA2D failed: %v", err)
			}

			if result.Normal.Z() != 0 {
				t.Errorf("normal %v leaves the plane", result.Normal)
			}
			if result.Normal.Dot(tt.normal) < 0.999 {
				t.Errorf("normal = %v, want %v", result.Normal, tt.normal)
			}
			if math.Abs(result.PenetrationDepth-tt.depth) > 1e-3 {
				t.Errorf("depth = %v, want %v", result.PenetrationDepth, tt.depth)
			}
		})
	}
}

func BenchmarkEPA_Boxes(b *testing.B) {
	boxA := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	boxB := createBox(mgl64.Vec3{0.5, 0.2, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	simplex := &gjk.Simplex{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gjk.GJK(boxA, boxB, simplex, mgl64.Vec3{1, 0, 0})
		_, _ = EPA(boxA, boxB, simplex)
	}
}
