package patch

// State is a step of the per-invocation patch state machine:
//
//	Idle -> Locating -> Found -> Replacing -> Verifying -> Verified -> Done
//	                 \-> NotFound -> Failed          \-> Failed
type State int

const (
	StateIdle State = iota
	StateLocating
	StateFound
	StateNotFound
	StateReplacing
	StateVerifying
	StateVerified
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateLocating:  "locating",
	StateFound:     "found",
	StateNotFound:  "not_found",
	StateReplacing: "replacing",
	StateVerifying: "verifying",
	StateVerified:  "verified",
	StateDone:      "done",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
