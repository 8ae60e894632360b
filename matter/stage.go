package matter

// Stage is a realization level. Each stage's cached quantities depend only
// on lower stages, so invalidation is modeled as dropping the realized
// stage rather than per-field dependency tracking.
type Stage int

const (
	StageEmpty Stage = iota
	StageTopology
	StageModel
	StageInstance
	StageTime
	StagePosition
	StageVelocity
	StageDynamics
	StageAcceleration
)

var stageNames = [...]string{
	StageEmpty:        "Empty",
	StageTopology:     "Topology",
	StageModel:        "Model",
	StageInstance:     "Instance",
	StageTime:         "Time",
	StagePosition:     "Position",
	StageVelocity:     "Velocity",
	StageDynamics:     "Dynamics",
	StageAcceleration: "Acceleration",
}

func (s Stage) String() string {
	if s < StageEmpty || s > StageAcceleration {
		return "Invalid"
	}
	return stageNames[s]
}

// valid reports whether s is a realizable stage for a constructed tree.
func (s Stage) valid() bool {
	return s >= StageTopology && s <= StageAcceleration
}
