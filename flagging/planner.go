package flagging

import (
	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/reading"
)

// Plan is the work batch of one stream.
type Plan struct {
	// Context holds the positions handed to the oracle.
	Context *PositionSet
	// Decision holds the positions whose oracle result is accepted.
	Decision *PositionSet
	// Eligible counts the readings that had no flag when the run started.
	Eligible int
}

func (p Plan) IsEmpty() bool {
	return p.Context.IsEmpty()
}

// PlanBatch unions the windows of every reading whose uid is not in flagged.
// When all readings are flagged both sets are empty.
func PlanBatch(stream *reading.Stream, flagged flagstore.UIDSet, calc *Calculator) Plan {
	n := stream.Len()
	plan := Plan{
		Context:  NewPositionSet(n),
		Decision: NewPositionSet(n),
	}

	for i := 0; i < n; i++ {
		r := &stream.Readings[i]
		if flagged.Has(r.UID) {
			continue
		}

		plan.Eligible++
		contextRange, decisionRange := calc.Windows(r.Position)
		plan.Context.AddRange(contextRange)
		plan.Decision.AddRange(decisionRange)
	}

	return plan
}
