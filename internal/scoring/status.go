package scoring

// Component is one stage of a mock drive.
type Component string

const (
	ComponentAptitude    Component = "APTITUDE"
	ComponentMachineTest Component = "MACHINE_TEST"
	ComponentAIInterview Component = "AI_INTERVIEW"
	ComponentCompleted   Component = "COMPLETED"
)

// componentOrder is the fixed precedence a candidate moves through.
var componentOrder = []Component{ComponentAptitude, ComponentMachineTest, ComponentAIInterview}

// Rank is the position of c in the progression; COMPLETED ranks last.
func (c Component) Rank() int {
	for i, oc := range componentOrder {
		if oc == c {
			return i
		}
	}
	return len(componentOrder)
}

// Outcome is what is known about one component of an attempt.
type Outcome int

const (
	OutcomeDisabled Outcome = iota
	OutcomePending
	OutcomeInProgress
	OutcomeSatisfied
)

// Snapshot is the per-component state of an attempt, derived from its linked records.
type Snapshot struct {
	Aptitude    Outcome
	MachineTest Outcome
	AIInterview Outcome
}

func (s Snapshot) outcome(c Component) Outcome {
	switch c {
	case ComponentAptitude:
		return s.Aptitude
	case ComponentMachineTest:
		return s.MachineTest
	case ComponentAIInterview:
		return s.AIInterview
	}
	return OutcomeDisabled
}

// ComponentStatus tells a candidate where they are in the drive.
type ComponentStatus struct {
	CurrentComponent    Component   `json:"current_component"`
	NextComponent       Component   `json:"next_component"`
	CanProceed          bool        `json:"can_proceed"`
	Message             string      `json:"message"`
	CompletedComponents []Component `json:"completed_components"`
}

// IsCompleted reports whether every enabled component is satisfied.
func (s ComponentStatus) IsCompleted() bool {
	return s.CurrentComponent == ComponentCompleted
}

// ResolveComponentStatus picks the first enabled component that is not yet satisfied.
// Disabled components are skipped. When nothing is left the status is COMPLETED with
// CanProceed set, which is the signal to finalize the attempt.
func ResolveComponentStatus(s Snapshot) ComponentStatus {
	status := ComponentStatus{
		CurrentComponent:    ComponentCompleted,
		NextComponent:       ComponentCompleted,
		CompletedComponents: []Component{},
	}

	current := -1
	for i, c := range componentOrder {
		o := s.outcome(c)
		if o == OutcomeDisabled {
			continue
		}
		if o == OutcomeSatisfied {
			if current == -1 {
				status.CompletedComponents = append(status.CompletedComponents, c)
			}
			continue
		}
		if current == -1 {
			current = i
		}
	}

	if current == -1 {
		status.CanProceed = true
		status.Message = "All components are complete. The mock drive can be finalized."
		return status
	}

	status.CurrentComponent = componentOrder[current]
	for _, c := range componentOrder[current+1:] {
		if s.outcome(c) != OutcomeDisabled {
			status.NextComponent = c
			break
		}
	}
	status.Message = pendingMessage(status.CurrentComponent, s.outcome(status.CurrentComponent))
	return status
}

func pendingMessage(c Component, o Outcome) string {
	switch c {
	case ComponentAptitude:
		return "Complete and submit the aptitude test to continue."
	case ComponentMachineTest:
		if o == OutcomeInProgress {
			return "Submit a solution to at least one machine test problem to continue."
		}
		return "Start the machine test to continue."
	case ComponentAIInterview:
		if o == OutcomeInProgress {
			return "Finish the AI interview to complete the drive."
		}
		return "Start the AI interview to continue."
	}
	return ""
}
