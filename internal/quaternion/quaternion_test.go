package quaternion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProdBasisElements(t *testing.T) {
	i := Quaternion{X: 1}
	j := Quaternion{Y: 1}
	k := Quaternion{Z: 1}

	assert.Equal(t, k, i.Prod(j))
	assert.Equal(t, i, j.Prod(k))
	assert.Equal(t, j, k.Prod(i))
	assert.Equal(t, Quaternion{W: -1}, i.Prod(i))
	assert.Equal(t, Quaternion{W: -1}, j.Prod(j))
	assert.Equal(t, Quaternion{W: -1}, k.Prod(k))
}

func TestProdIdentity(t *testing.T) {
	q := Quaternion{W: 0.5, X: -0.5, Y: 0.5, Z: 0.5}
	assert.Equal(t, q, Identity().Prod(q))
	assert.Equal(t, q, q.Prod(Identity()))
}

func TestProdNotCommutative(t *testing.T) {
	p := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	q := Quaternion{W: 4, X: 3, Y: 2, Z: 1}
	assert.NotEqual(t, p.Prod(q), q.Prod(p))
}

func TestConjUndoesRotation(t *testing.T) {
	q := FromEuler(0.3, -0.5, 1.2)
	r := q.Prod(q.Conj())
	assert.InDelta(t, 1, r.W, 1e-12)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 0, r.Y, 1e-12)
	assert.InDelta(t, 0, r.Z, 1e-12)
}

func TestNormAndNormalized(t *testing.T) {
	q := Quaternion{W: 1, X: 2, Y: 2, Z: 4}
	assert.InDelta(t, 5, q.Norm(), 1e-12)

	n := q.Normalized()
	assert.InDelta(t, 1, n.Norm(), 1e-12)
	assert.InDelta(t, 0.2, n.W, 1e-12)
	assert.InDelta(t, 0.8, n.Z, 1e-12)
}

func TestNormIsProductCompatible(t *testing.T) {
	p := Quaternion{W: 0.2, X: -1.1, Y: 0.4, Z: 2}
	q := Quaternion{W: 1.5, X: 0.3, Y: -0.7, Z: 0.1}
	assert.InDelta(t, p.Norm()*q.Norm(), p.Prod(q).Norm(), 1e-12)
}

func TestAngleTo(t *testing.T) {
	q := FromEuler(math.Pi/2, 0, 0)
	assert.InDelta(t, math.Pi/2, Identity().AngleTo(q), 1e-12)
	assert.InDelta(t, 0, q.AngleTo(q), 1e-6)

	// q and -q are the same rotation.
	neg := q.Scale(-1)
	assert.InDelta(t, 0, q.AngleTo(neg), 1e-6)
}

func TestFromEuler(t *testing.T) {
	assert.Equal(t, Identity(), FromEuler(0, 0, 0))

	// 90° yaw about Z.
	q := FromEuler(0, 0, math.Pi/2)
	assert.InDelta(t, math.Sqrt2/2, q.W, 1e-12)
	assert.InDelta(t, 0, q.X, 1e-12)
	assert.InDelta(t, 0, q.Y, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, q.Z, 1e-12)

	assert.InDelta(t, 1, FromEuler(0.4, -0.2, 2.5).Norm(), 1e-12)
}

func TestRotateVectorBySandwich(t *testing.T) {
	// 90° roll carries the body Y axis onto Z.
	q := FromEuler(math.Pi/2, 0, 0)
	v := FromVector(0, 1, 0)
	r := q.Prod(v.Prod(q.Conj()))
	assert.InDelta(t, 0, r.W, 1e-12)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 0, r.Y, 1e-12)
	assert.InDelta(t, 1, r.Z, 1e-12)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Identity().IsFinite())
	assert.True(t, Quaternion{}.IsFinite())
	assert.False(t, Quaternion{W: math.NaN()}.IsFinite())
	assert.False(t, Quaternion{Y: math.Inf(-1)}.IsFinite())
}
