package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform is a translation/rotation/scale with a lazily rebuilt model matrix.
// Shapes reference a Transform without owning it. Every change bumps the model
// version; rotation and scale changes also bump the rotation version, so
// caches depending only on the linear part can skip pure translations.
type Transform struct {
	translation mgl64.Vec3
	rotation    mgl64.Quat
	scale       mgl64.Vec3

	model      mgl64.Mat4
	modelDirty bool

	rotationVersion uint32
	modelVersion    uint32
}

// NewTransform creates an identity transform
func NewTransform() *Transform {
	return NewTransformTRS(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
}

// NewTransformAt creates an unrotated, unscaled transform at position
func NewTransformAt(position mgl64.Vec3) *Transform {
	return NewTransformTRS(position, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
}

func NewTransformTRS(translation mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) *Transform {
	return &Transform{
		translation:     translation,
		rotation:        rotation.Normalize(),
		scale:           scale,
		modelDirty:      true,
		rotationVersion: 1,
		modelVersion:    1,
	}
}

func (t *Transform) Translation() mgl64.Vec3 {
	return t.translation
}

func (t *Transform) Rotation() mgl64.Quat {
	return t.rotation
}

func (t *Transform) Scale() mgl64.Vec3 {
	return t.scale
}

func (t *Transform) SetTranslation(translation mgl64.Vec3) {
	t.translation = translation
	t.touch(false)
}

// ApplyTranslation moves the transform by delta
func (t *Transform) ApplyTranslation(delta mgl64.Vec3) {
	t.SetTranslation(t.translation.Add(delta))
}

func (t *Transform) SetRotation(rotation mgl64.Quat) {
	t.rotation = rotation.Normalize()
	t.touch(true)
}

// ApplyRotation composes delta before the current rotation
func (t *Transform) ApplyRotation(delta mgl64.Quat) {
	t.SetRotation(delta.Mul(t.rotation))
}

func (t *Transform) SetScale(scale mgl64.Vec3) {
	t.scale = scale
	t.touch(true)
}

func (t *Transform) touch(linear bool) {
	t.modelDirty = true
	t.modelVersion++
	if linear {
		t.rotationVersion++
	}
}

// RotationVersion changes whenever rotation or scale changes
func (t *Transform) RotationVersion() uint32 {
	return t.rotationVersion
}

// ModelVersion changes whenever any component changes
func (t *Transform) ModelVersion() uint32 {
	return t.modelVersion
}

// Model returns translation * rotation * scale, rebuilding it if needed
func (t *Transform) Model() mgl64.Mat4 {
	if t.modelDirty {
		t.model = mgl64.Translate3D(t.translation.X(), t.translation.Y(), t.translation.Z()).
			Mul4(t.rotation.Mat4()).
			Mul4(mgl64.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z()))
		t.modelDirty = false
	}

	return t.model
}

// Linear returns rotation * scale, the upper 3x3 of the model matrix
func (t *Transform) Linear() mgl64.Mat3 {
	return t.rotation.Mat4().Mat3().Mul3(mgl64.Diag3(t.scale))
}

// Apply transforms a local point to world space
func (t *Transform) Apply(local mgl64.Vec3) mgl64.Vec3 {
	return t.Model().Mul4x1(local.Vec4(1)).Vec3()
}

// ApplyInverse transforms a world point to local space
func (t *Transform) ApplyInverse(world mgl64.Vec3) mgl64.Vec3 {
	local := t.rotation.Conjugate().Rotate(world.Sub(t.translation))
	return mgl64.Vec3{local.X() / t.scale.X(), local.Y() / t.scale.Y(), local.Z() / t.scale.Z()}
}

// ApplyInverseDirection transforms a world direction to local space
func (t *Transform) ApplyInverseDirection(world mgl64.Vec3) mgl64.Vec3 {
	local := t.rotation.Conjugate().Rotate(world)
	return mgl64.Vec3{local.X() / t.scale.X(), local.Y() / t.scale.Y(), local.Z() / t.scale.Z()}
}
