package physics

import "github.com/go-gl/mathgl/mgl32"

const (
	contactSlop      = 0.005
	contactCorrect   = 0.8
	restitutionFloor = 0.5 // normal speeds below this do not bounce
)

var groundNormal = mgl32.Vec3{0, 1, 0}

// solveGround resolves box corners that penetrate the ground plane with
// sequential normal and friction impulses, then projects the body out.
func (w *World) solveGround(b *Body) {
	g := w.ground
	corners := b.shape.corners()

	var deepest float32
	for iter := 0; iter < w.iterations; iter++ {
		touched := false
		for _, c := range corners {
			rel := b.orientation.Rotate(c)
			p := b.position.Add(rel)
			depth := g.Y - p.Y()
			if depth <= 0 {
				continue
			}
			touched = true
			if depth > deepest {
				deepest = depth
			}

			vn := b.VelocityAt(rel).Dot(groundNormal)
			if vn >= 0 {
				continue
			}
			e := float32(0)
			if iter == 0 && -vn > restitutionFloor {
				e = g.Restitution
			}
			k := b.effectiveInvMass(rel, groundNormal)
			if k <= 0 {
				continue
			}
			jn := -(1 + e) * vn / k
			b.ApplyImpulse(groundNormal.Mul(jn), rel)

			applyFriction(b, rel, jn*g.Friction)
		}
		if !touched {
			return
		}
	}

	if deepest > contactSlop {
		b.position = b.position.Add(groundNormal.Mul((deepest - contactSlop) * contactCorrect))
	}
}

// applyFriction removes tangential velocity at rel, bounded by maxImpulse.
func applyFriction(b *Body, rel mgl32.Vec3, maxImpulse float32) {
	if maxImpulse <= 0 {
		return
	}
	v := b.VelocityAt(rel)
	vt := v.Sub(groundNormal.Mul(v.Dot(groundNormal)))
	speed := vt.Len()
	if speed < 1e-6 {
		return
	}
	t := vt.Mul(1 / speed)
	k := b.effectiveInvMass(rel, t)
	if k <= 0 {
		return
	}
	jt := speed / k
	if jt > maxImpulse {
		jt = maxImpulse
	}
	b.ApplyImpulse(t.Mul(-jt), rel)
}
