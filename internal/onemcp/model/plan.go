package model

// WorkflowKind describes how a Plan's steps are meant to be scheduled.
type WorkflowKind string

const (
	WorkflowSequential     WorkflowKind = "sequential"
	WorkflowParallelFanout WorkflowKind = "parallel-fanout"
)

// Step is one compiled unit of code with declared input/output variable
// names. A step's inputs must be present in the Value Store before it starts;
// its outputs must exist after it completes successfully.
type Step struct {
	ID               string
	QualifiedName    string // the compile unit name, e.g. "steps.Step1"
	Snippet          string
	InputVars        []string
	OutputVars       []string
	ServicesUsed     []string
}

// Plan is an ordered list of Steps plus the workflow kind they run under.
// For WorkflowParallelFanout, Steps in the same FanoutGroup run concurrently
// with no ordering guarantee between them.
type Plan struct {
	Kind         WorkflowKind
	Steps        []Step
	FanoutGroups [][]int // indices into Steps, only meaningful when Kind == WorkflowParallelFanout
}

// ValidateOutputUniqueness checks the parallel-fanout invariant that no two
// steps in the same fanout group declare the same output name.
func (p *Plan) ValidateOutputUniqueness() error {
	if p.Kind != WorkflowParallelFanout {
		return nil
	}
	for _, group := range p.FanoutGroups {
		seen := make(map[string]string, len(group))
		for _, idx := range group {
			step := p.Steps[idx]
			for _, out := range step.OutputVars {
				if owner, ok := seen[out]; ok {
					return &duplicateOutputError{Output: out, StepA: owner, StepB: step.ID}
				}
				seen[out] = step.ID
			}
		}
	}
	return nil
}

type duplicateOutputError struct {
	Output, StepA, StepB string
}

func (e *duplicateOutputError) Error() string {
	return "steps " + e.StepA + " and " + e.StepB + " both declare output " + e.Output
}
