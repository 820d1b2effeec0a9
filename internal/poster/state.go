package poster

// State is the progress of one post attempt.
type State int

const (
	NotStarted State = iota
	ComposeBoxFound
	TextEntered
	SubmitAttempted
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case ComposeBoxFound:
		return "compose_box_found"
	case TextEntered:
		return "text_entered"
	case SubmitAttempted:
		return "submit_attempted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
