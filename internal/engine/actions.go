package engine

// Action names one of the seven catalog entries.
type Action string

const (
	ActionRest      Action = "rest"
	ActionOrganize  Action = "organize"
	ActionPractice  Action = "practice"
	ActionExplore   Action = "explore"
	ActionReflect   Action = "reflect"
	ActionIdle      Action = "idle"
	ActionChallenge Action = "challenge"
)

// ActionSpec is the immutable profile of one catalog action. Negative
// costs are gains (rest restores energy).
type ActionSpec struct {
	Name          Action
	BaseRisk      float64
	EnergyCost    float64
	ClarityCost   float64
	StabilityGain float64
	KnowledgeGain float64
	FatigueGain   float64
	StressOnFail  float64
}

// Catalog is the closed action set. Slice order is the deterministic
// tie-break order during scoring.
var Catalog = []ActionSpec{
	{ActionRest, 0.02, -0.10, -0.04, 0.05, 0.00, -0.10, 0.04},
	{ActionOrganize, 0.08, 0.08, 0.05, 0.10, 0.03, 0.04, 0.06},
	{ActionPractice, 0.14, 0.12, 0.09, 0.05, 0.12, 0.08, 0.09},
	{ActionExplore, 0.22, 0.16, 0.10, 0.03, 0.18, 0.09, 0.12},
	{ActionReflect, 0.05, 0.05, -0.03, 0.08, 0.09, -0.02, 0.05},
	{ActionIdle, 0.01, -0.03, -0.02, 0.02, 0.00, -0.05, 0.03},
	{ActionChallenge, 0.35, 0.20, 0.16, 0.07, 0.20, 0.12, 0.18},
}

// SpecFor looks up an action profile by name.
func SpecFor(name Action) (ActionSpec, bool) {
	for _, spec := range Catalog {
		if spec.Name == name {
			return spec, true
		}
	}
	return ActionSpec{}, false
}

// ValidAction reports whether the string names a catalog action.
func ValidAction(s string) bool {
	_, ok := SpecFor(Action(s))
	return ok
}

// SkillRecord tracks per-action proficiency. Level only ever climbs,
// via experience crossing the threshold; the threshold grows 25% per
// level.
type SkillRecord struct {
	Level      int     `json:"level"`
	Experience float64 `json:"experience"`
	Threshold  float64 `json:"threshold"`
}

func newSkillRecord() *SkillRecord {
	return &SkillRecord{Level: 1, Threshold: 1.0}
}

// Gain adds experience for one execution and reports whether the skill
// leveled up.
func (s *SkillRecord) Gain(success bool) bool {
	if success {
		s.Experience += 0.30
	} else {
		s.Experience += 0.12
	}
	if s.Experience >= s.Threshold {
		s.Experience -= s.Threshold
		s.Level++
		s.Threshold *= 1.25
		return true
	}
	return false
}

// Skill modifiers. Higher levels shave risk and energy cost, raise
// reward, and relieve a little stress on success — all capped.
func (s *SkillRecord) RiskMult() float64 {
	return max(0.75, 1.0-0.02*float64(s.Level-1))
}

func (s *SkillRecord) EnergyMult() float64 {
	return max(0.78, 1.0-0.015*float64(s.Level-1))
}

func (s *SkillRecord) RewardMult() float64 {
	return min(1.25, 1.0+0.02*float64(s.Level-1))
}

func (s *SkillRecord) StressRelief() float64 {
	return min(0.08, 0.005*float64(s.Level-1))
}
