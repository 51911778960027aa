package player

// Command is a key press interpreted for the player.
type Command int

const (
	CommandNone Command = iota
	CommandStop
	CommandPrevious
	CommandNext
)

func (c Command) String() string {
	switch c {
	case CommandStop:
		return "stop"
	case CommandPrevious:
		return "previous"
	case CommandNext:
		return "next"
	default:
		return "none"
	}
}

// ParseCommand maps an input byte to a command, ignoring case.
func ParseCommand(b byte) Command {
	switch b {
	case 's', 'S':
		return CommandStop
	case 'p', 'P':
		return CommandPrevious
	case 'n', 'N':
		return CommandNext
	default:
		return CommandNone
	}
}

// Action tells the track loop what to do once a track's sector loop ends.
type Action int

const (
	Continue Action = iota // play the following track
	Stop                   // end playback
	JumpTo                 // play Control.Track next
)

// Control is the outcome of playing (part of) a track.
type Control struct {
	Action Action
	Track  int
}

// Interrupts reports whether the control ends the current track early.
func (c Control) Interrupts() bool {
	return c.Action != Continue
}

// RequestTrack returns a control that plays track n next.
func RequestTrack(n int) Control {
	return Control{Action: JumpTo, Track: n}
}

// Transition decides how cmd, received while playing track current of
// total, redirects playback.
//
// Next wraps from the last track to the first. Previous steps back one
// track, except from track 1 where it lands on total-1, one before the
// last track.
func Transition(cmd Command, current, total int) Control {
	switch cmd {
	case CommandStop:
		return Control{Action: Stop}
	case CommandNext:
		if current+1 > total {
			return RequestTrack(1)
		}
		return RequestTrack(current + 1)
	case CommandPrevious:
		if current <= 1 {
			return RequestTrack(max(total-1, 1))
		}
		return RequestTrack(current - 1)
	default:
		return Control{Action: Continue}
	}
}
