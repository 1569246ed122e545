package videogames

import (
	"fmt"

	"github.com/aretw0/arcade/pkg/domain"
)

// State is the closed set of states of the video game conversation.
type State uint8

const (
	Start State = iota
	InitPrompt
	NoGames
	Ques1
	Ans1
	Atari
	PlayStation
	Nintendo
	Xbox
	PC
	Sega
	GameBoy
	DS
	Genesis
	Ques2
	FavAns
	NoFav
	FavAck
	RecFeedback
	Another
	Facts
	Err
	DeviceErr
	RecErr
	Restart
	Goodbye
	End

	stateCount
)

// String returns the state identifier used in the graph.
func (s State) String() string {
	switch s {
	case Start:
		return "START"
	case InitPrompt:
		return "INIT_PROMPT"
	case NoGames:
		return "NO_GAMES"
	case Ques1:
		return "QUES1"
	case Ans1:
		return "ANS1"
	case Atari:
		return "ATARI"
	case PlayStation:
		return "PLAYSTATION"
	case Nintendo:
		return "NINTENDO"
	case Xbox:
		return "XBOX"
	case PC:
		return "PC"
	case Sega:
		return "SEGA"
	case GameBoy:
		return "GAMEBOY"
	case DS:
		return "DS"
	case Genesis:
		return "GENESIS"
	case Ques2:
		return "QUES2"
	case FavAns:
		return "FAV_ANS"
	case NoFav:
		return "NO_FAV"
	case FavAck:
		return "FAV_ACK"
	case RecFeedback:
		return "REC_FEEDBACK"
	case Another:
		return "ANOTHER"
	case Facts:
		return "FACTS"
	case Err:
		return "ERR"
	case DeviceErr:
		return "DEVICE_ERR"
	case RecErr:
		return "REC_ERR"
	case Restart:
		return "RESTART"
	case Goodbye:
		return "GOODBYE"
	case End:
		return "END"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ID returns the graph identifier of the state.
func (s State) ID() domain.StateID {
	return domain.StateID(s.String())
}

// All returns every state in declaration order.
func All() []State {
	states := make([]State, 0, stateCount)
	for s := Start; s < stateCount; s++ {
		states = append(states, s)
	}
	return states
}

// Parse returns the state named by id.
func Parse(id domain.StateID) (State, bool) {
	for _, s := range All() {
		if s.ID() == id {
			return s, true
		}
	}
	return 0, false
}
