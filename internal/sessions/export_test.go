package sessions

var (
	OutcomeOf         = outcomeOf
	OutcomeProjection = outcomeProjection
)
