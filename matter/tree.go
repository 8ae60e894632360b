package matter

import "github.com/kinodyn/kinodyn/spatial"

// BodyID indexes a body in a Tree. Ground is always id 0.
type BodyID int

// Ground is the fixed inertial body at the root of every tree.
const Ground BodyID = 0

// Body describes one rigid body: its parent link, the mobilizer connecting
// it to the parent, the two fixed mobilizer frames, and its mass
// properties expressed in its own frame.
//
// FrameInParent is X_PF, the mobilizer's fixed frame F on the parent.
// FrameInBody is X_BM, the mobilizer's moving frame M on this body.
type Body struct {
	Parent        BodyID
	Mobilizer     Mobilizer
	FrameInParent spatial.Transform
	FrameInBody   spatial.Transform
	Mass          spatial.MassProperties
}

// GroundBody is the required entry at index 0 of a body list.
func GroundBody() Body {
	return Body{
		FrameInParent: spatial.IdentityTransform(),
		FrameInBody:   spatial.IdentityTransform(),
	}
}

// Tree is the immutable topology of an articulated multibody system: a
// tree rooted at Ground, with body ids assigned in topological order
// (every parent id is smaller than its children's ids). Once built it is
// safe to share across goroutines and States without synchronization.
type Tree struct {
	bodies     []Body
	children   [][]BodyID
	qIndex     []int
	uIndex     []int
	nq, nu     int
	nparticles int
}

// NewTree validates and freezes a body list. Entry 0 must be the Ground
// body (no parent, no mobilizer); every other entry needs a mobilizer and
// a parent with a smaller id. Malformed input fails here with
// ErrInvalidTopology and never later.
func NewTree(bodies []Body) (*Tree, error) {
	return NewTreeWithParticles(bodies, 0)
}

// NewTreeWithParticles additionally declares a count of loose point masses
// whose force-accumulator slots are sized by this tree.
func NewTreeWithParticles(bodies []Body, numParticles int) (*Tree, error) {
	if len(bodies) == 0 {
		return nil, &TopologyError{Body: Ground, Reason: "tree has no ground body"}
	}
	if numParticles < 0 {
		return nil, &TopologyError{Body: Ground, Reason: "negative particle count"}
	}
	if bodies[0].Mobilizer != nil {
		return nil, &TopologyError{Body: Ground, Reason: "ground may not have a mobilizer"}
	}
	if bodies[0].Parent != Ground {
		return nil, &TopologyError{Body: Ground, Reason: "ground may not have a parent"}
	}

	t := &Tree{
		bodies:     make([]Body, len(bodies)),
		children:   make([][]BodyID, len(bodies)),
		qIndex:     make([]int, len(bodies)),
		uIndex:     make([]int, len(bodies)),
		nparticles: numParticles,
	}
	copy(t.bodies, bodies)

	// Literal Body values may leave the mobilizer frames unset; an unset
	// frame means identity rotation at the given offset.
	for i := range t.bodies {
		if t.bodies[i].FrameInParent.R.IsZero() {
			t.bodies[i].FrameInParent.R = spatial.IdentityRotation()
		}
		if t.bodies[i].FrameInBody.R.IsZero() {
			t.bodies[i].FrameInBody.R = spatial.IdentityRotation()
		}
	}

	for i := 1; i < len(bodies); i++ {
		b := t.bodies[i]
		id := BodyID(i)
		if b.Mobilizer == nil {
			return nil, &TopologyError{Body: id, Reason: "missing mobilizer"}
		}
		if b.Parent < 0 || int(b.Parent) >= len(bodies) {
			return nil, &TopologyError{Body: id, Reason: "parent out of range"}
		}
		// Parent ids must precede children; this rules out cycles and
		// forward references in one check.
		if b.Parent >= id {
			return nil, &TopologyError{Body: id, Reason: "parent id must be smaller than body id"}
		}
		t.children[b.Parent] = append(t.children[b.Parent], id)
		t.qIndex[i] = t.nq
		t.uIndex[i] = t.nu
		t.nq += b.Mobilizer.NumQ()
		t.nu += b.Mobilizer.NumU()
	}
	return t, nil
}

// NumBodies includes Ground.
func (t *Tree) NumBodies() int   { return len(t.bodies) }
func (t *Tree) NumParticles() int { return t.nparticles }

// NumQ is the total generalized-coordinate count across all mobilizers.
func (t *Tree) NumQ() int { return t.nq }

// NumU is the total generalized-speed (mobility) count.
func (t *Tree) NumU() int { return t.nu }

func (t *Tree) validBody(b BodyID) bool {
	return b >= 0 && int(b) < len(t.bodies)
}

// Body returns the frozen definition of body b.
func (t *Tree) Body(b BodyID) Body { return t.bodies[b] }

// Parent returns the parent of b. Ground is its own parent.
func (t *Tree) Parent(b BodyID) BodyID { return t.bodies[b].Parent }

// Children returns b's children in id order. The slice is shared; callers
// must not modify it.
func (t *Tree) Children(b BodyID) []BodyID { return t.children[b] }

// QIndex is the offset of body b's first generalized coordinate within the
// state's q vector; UIndex likewise for u.
func (t *Tree) QIndex(b BodyID) int { return t.qIndex[b] }
func (t *Tree) UIndex(b BodyID) int { return t.uIndex[b] }

// mobilityQ slices body b's coordinates out of a full q vector.
func (t *Tree) mobilityQ(b BodyID, q []float64) []float64 {
	n := t.bodies[b].Mobilizer.NumQ()
	return q[t.qIndex[b] : t.qIndex[b]+n]
}

func (t *Tree) mobilityU(b BodyID, u []float64) []float64 {
	n := t.bodies[b].Mobilizer.NumU()
	return u[t.uIndex[b] : t.uIndex[b]+n]
}
