package router

// Draft is a proposed answer awaiting human review.
type Draft struct {
	Query      string
	Answer     string
	Domain     string
	Signature  string
	FromMemory bool
}

// FeedbackPort is the synchronous checkpoint where a human reviews a
// draft. Empty feedback means approval; anything else is either a
// correction or a topic switch, which the workflow classifies itself.
// The same state machine runs under a console, an HTTP long-poll, or a
// test script, depending on the port wired in.
type FeedbackPort interface {
	Present(draft Draft) (string, error)
}

// AutoApprove accepts every draft unchanged. Used for one-shot queries
// where nobody is reviewing.
type AutoApprove struct{}

func (AutoApprove) Present(Draft) (string, error) { return "", nil }
