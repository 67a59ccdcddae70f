/*

Package analyzer is the reference MessageHandler: a downstream observer
that turns decoded game events and string-table entries into a summary of
a match (users, deaths, rounds, chat), without ever touching parser
internals directly — it only sees what the MessageHandler contract hands
it.

*/
package analyzer

import (
	"bytes"
	"encoding/binary"

	"github.com/icza/tf2demo/gameevent"
	"github.com/icza/tf2demo/parser"
	"github.com/icza/tf2demo/schema"
)

// winReasonTimeLimit is the win_reason value TeamPlayRoundWin carries when
// a round ends because the map's time limit expired rather than an actual
// capture/elimination; such rounds are dropped from the reported history.
const winReasonTimeLimit = 6

// Team is a TF2 team assignment.
type Team int32

// Known team ids.
const (
	TeamUnassigned Team = iota
	TeamSpectator
	TeamRed
	TeamBlue
)

// UserInfo is what's known about one connected player.
type UserInfo struct {
	UserID   int32
	Name     string
	SteamID  string
	EntityID int32
	Team     Team
	Classes  ClassCounts
}

// ClassCounts tallies how many lives a user spent as each class, keyed by
// the player class index as carried on player_spawn events.
type ClassCounts map[int32]int

// Death is one player_death event, flattened for reporting.
type Death struct {
	Tick         int
	VictimUserID int32
	AttackerID   int32
	AssisterID   int32
	Weapon       string
	Crit         bool
}

// Round is one round_start/teamplay_round_win pair.
type Round struct {
	StartTick   int
	EndTick     int
	WinningTeam Team
	WinReason   int32
}

// ChatMessage is one say/say_team event.
type ChatMessage struct {
	Tick     int
	UserID   int32
	Text     string
	TeamOnly bool
}

// MatchState is the analyzer's accumulated output, returned from
// GetOutput once the demo has been fully parsed.
type MatchState struct {
	Users  map[int32]*UserInfo
	Deaths []Death
	Rounds []Round
	Chat   []ChatMessage
}

// Analyzer implements parser.MessageHandler, building a MatchState as
// messages arrive.
type Analyzer struct {
	handleEvents bool

	state        *MatchState
	openRound    *Round
	userByString map[int]int32 // string-table index -> userid, for "userinfo"
}

// New returns an Analyzer that asks the parser for fully decoded
// GameEvent messages (it has no use for raw PacketEntities frames, so it
// declines those via DoesHandle to let the parser take the cheaper path
// where one exists).
func New() *Analyzer {
	return &Analyzer{
		handleEvents: true,
		state: &MatchState{
			Users: make(map[int32]*UserInfo),
		},
		userByString: make(map[int]int32),
	}
}

// DoesHandle implements parser.MessageHandler.
func (a *Analyzer) DoesHandle(t parser.MessageType) bool {
	return t == parser.MessageGameEvent && a.handleEvents
}

// HandleMessage implements parser.MessageHandler.
func (a *Analyzer) HandleMessage(message any, tick int) {
	event, ok := message.(*gameevent.RawEvent)
	if !ok {
		return
	}

	switch typed := event.AsTyped().(type) {
	case gameevent.PlayerDeath:
		a.state.Deaths = append(a.state.Deaths, Death{
			Tick:         tick,
			VictimUserID: typed.VictimUserID,
			AttackerID:   typed.AttackerID,
			AssisterID:   typed.AssisterID,
			Weapon:       typed.Weapon,
			Crit:         typed.Crit,
		})

	case gameevent.PlayerSpawn:
		user, ok := a.state.Users[typed.UserID]
		if !ok {
			user = &UserInfo{UserID: typed.UserID}
			a.state.Users[typed.UserID] = user
		}
		if user.Classes == nil {
			user.Classes = make(ClassCounts)
		}
		user.Team = Team(typed.Team)
		user.Classes[typed.Class]++

	case gameevent.TeamPlayRoundWin:
		if a.openRound != nil {
			a.openRound.EndTick = tick
			a.openRound.WinningTeam = Team(typed.Team)
			a.openRound.WinReason = typed.WinReason
			if typed.WinReason != winReasonTimeLimit {
				a.state.Rounds = append(a.state.Rounds, *a.openRound)
			}
			a.openRound = nil
		}

	default:
		if event.Definition.EventType == schema.GameEventTypeRoundStart {
			a.openRound = &Round{StartTick: tick}
		}
		a.handleChat(event, tick)
	}
}

// handleChat recognises the two chat event names by hand, since they
// aren't part of the small typed-event set in gameevent.events.go.
func (a *Analyzer) handleChat(event *gameevent.RawEvent, tick int) {
	var teamOnly bool
	switch event.Definition.Name {
	case "player_say":
		teamOnly = false
	case "player_say_team":
		teamOnly = true
	default:
		return
	}

	text, _ := event.Lookup("text")
	userid, _ := event.Lookup("userid")
	a.state.Chat = append(a.state.Chat, ChatMessage{
		Tick:     tick,
		UserID:   asInt32(userid),
		Text:     text.String,
		TeamOnly: teamOnly,
	})
}

func asInt32(v gameevent.Value) int32 {
	switch v.Kind {
	case schema.GameEventByte:
		return int32(v.Byte)
	case schema.GameEventShort:
		return int32(v.Short)
	case schema.GameEventLong:
		return v.Long
	default:
		return 0
	}
}

// HandleStringEntry implements parser.MessageHandler. It reads "userinfo"
// entries as a player's display name plus, where the entry carries the
// extended payload (name, 32-bit user id, SteamID), those fields too. The
// string table index stands in for the entity id the real format carries
// as a separate decimal-string key (see DESIGN.md).
func (a *Analyzer) HandleStringEntry(tableName string, index int, entry []byte) {
	if tableName != "userinfo" {
		return
	}
	name, rest := splitNulTerminated(entry)

	userID := int32(index)
	var steamID string
	if len(rest) >= 4 {
		userID = int32(binary.LittleEndian.Uint32(rest[:4]))
		steamID, _ = splitNulTerminated(rest[4:])
	}
	a.userByString[index] = userID

	user, ok := a.state.Users[userID]
	if !ok {
		user = &UserInfo{UserID: userID, EntityID: int32(index)}
		a.state.Users[userID] = user
	}
	user.Name = name
	if steamID != "" {
		user.SteamID = steamID
	}
}

// splitNulTerminated returns the bytes before the first NUL as a string,
// and whatever follows it. If entry has no NUL, it is returned whole as
// the string with an empty remainder.
func splitNulTerminated(entry []byte) (string, []byte) {
	if i := bytes.IndexByte(entry, 0); i >= 0 {
		return string(entry[:i]), entry[i+1:]
	}
	return string(entry), nil
}

// GetOutput implements parser.MessageHandler.
func (a *Analyzer) GetOutput(state *parser.State) any {
	return a.state
}
