package audit

// Origin captures where a request came from, for audit attribution.
type Origin struct {
	IPAddress string
	UserAgent string
}

// Entry is what callers hand to the recorder. The recorder turns it into a
// persisted Event; Details may be any JSON-marshalable payload.
type Entry struct {
	Action  Action
	Actor   Actor
	Target  *Target
	Details map[string]any
	Origin  Origin
}
