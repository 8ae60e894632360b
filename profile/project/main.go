// Profiling:
// go build ./profile/project
// go tool pprof -http=":8000" ./project cpu.pprof

package main

import (
	"math"

	"github.com/pkg/profile"

	"github.com/kinodyn/kinodyn/matter"
	"github.com/kinodyn/kinodyn/spatial"
)

func main() {
	links := 8
	steps := 20000

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(links, steps)
	p.Stop()
}

func run(links, steps int) {
	bodies := []matter.Body{matter.GroundBody()}
	for i := 1; i <= links; i++ {
		bodies = append(bodies, matter.Body{
			Parent:        matter.BodyID(i - 1),
			Mobilizer:     matter.Pin{},
			FrameInParent: spatial.Translation(spatial.Vec3{X: 1}),
			FrameInBody:   spatial.IdentityTransform(),
			Mass: spatial.MassProperties{
				Mass:    1,
				COM:     spatial.Vec3{X: 0.5},
				Inertia: spatial.PrincipalInertia(0, 1, 1),
			},
		})
	}
	tree, err := matter.NewTree(bodies)
	if err != nil {
		panic(err)
	}

	tip := spatial.Vec3{X: 1}
	rod := &matter.Rod{
		BodyA:    matter.BodyID(links),
		StationA: tip,
		BodyB:    matter.Ground,
		StationB: spatial.Vec3{X: float64(links) * 0.8},
		Length:   0.5,
	}
	sub, err := matter.NewSubsystem(tree, matter.NewTreeKinematics(tree, rod))
	if err != nil {
		panic(err)
	}

	s := matter.NewState(tree)
	opts := matter.DefaultProjectOptions()
	opts.Tol = 1e-9
	opts.TargetTol = 1e-11

	yErr := make(matter.Vector, tree.NumQ()+tree.NumU())
	for step := 0; step < steps; step++ {
		// Drift the chain, then pull it back onto the constraint.
		for i := 0; i < tree.NumQ(); i++ {
			s.SetQ(i, 0.2*math.Sin(float64(step)*0.01+float64(i)))
		}
		if err := sub.Realize(s, matter.StagePosition); err != nil {
			panic(err)
		}
		for i := range yErr {
			yErr[i] = 1e-6
		}
		if _, err := sub.ProjectQConstraints(s, yErr, opts); err != nil {
			panic(err)
		}
	}
}
