package chatbot

import "strings"

// User-facing text.
const (
	SuccessNotice = "Found it!"
	FailureNotice = "Sorry, I couldn't find a song for that. Try a different lyric fragment."
	AnswerLabel   = "Answer:"
	ErrorMessage  = "An error occurred"
	ErrorHint     = "Make sure the index directory is in place and your API key is valid."
	SpinnerText   = "Searching for the song..."
)

type Status int

const (
	StatusIdle Status = iota
	StatusAnswered
	StatusNoAnswer
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAnswered:
		return "answered"
	case StatusNoAnswer:
		return "no_answer"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one query.
type Outcome struct {
	Status Status
	Query  string
	// Answer is the model's text verbatim. Set for StatusAnswered and
	// StatusNoAnswer.
	Answer string
	// Err is set for StatusFailed.
	Err *Error
}

// Message is the line shown to the user for this outcome.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusAnswered:
		return SuccessNotice
	case StatusNoAnswer:
		return FailureNotice
	case StatusFailed:
		if o.Err != nil && o.Err.Err != nil {
			return ErrorMessage + ": " + o.Err.Err.Error()
		}
		return ErrorMessage
	default:
		return ""
	}
}

// Kind returns the failure kind, or 0 for idle and answered outcomes.
func (o Outcome) Kind() Kind {
	switch {
	case o.Err != nil:
		return o.Err.Kind
	case o.Status == StatusNoAnswer:
		return KindNoAnswer
	default:
		return 0
	}
}

// IsNoAnswer reports whether the model declined to answer from the context.
func IsNoAnswer(answer string) bool {
	return strings.Contains(answer, NoAnswerSentinel)
}
