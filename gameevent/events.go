package gameevent

import "github.com/icza/tf2demo/schema"

// PlayerDeath is the typed form of a "player_death" event.
type PlayerDeath struct {
	VictimUserID       int32
	AttackerID         int32
	AssisterID         int32
	Weapon             string
	WeaponLogClassName string
	Crit               bool
}

// PlayerSpawn is the typed form of a "player_spawn" event.
type PlayerSpawn struct {
	UserID int32
	Team   int32
	Class  int32
}

// TeamPlayRoundWin is the typed form of a "teamplay_round_win" event.
type TeamPlayRoundWin struct {
	Team      int32
	WinReason int32
}

// AsTyped converts a RawEvent into one of the typed event structs above
// based on its definition's EventType, returning nil if the event isn't
// one of the known types AsTyped handles. Callers that need an unknown
// event's raw entries should use RawEvent.Lookup directly.
func (e *RawEvent) AsTyped() any {
	switch e.Definition.EventType {
	case schema.GameEventTypePlayerDeath:
		return e.asPlayerDeath()
	case schema.GameEventTypePlayerSpawn:
		return e.asPlayerSpawn()
	case schema.GameEventTypeTeamPlayRoundWin:
		return e.asTeamPlayRoundWin()
	default:
		return nil
	}
}

func (e *RawEvent) asPlayerDeath() PlayerDeath {
	var d PlayerDeath
	if v, ok := e.Lookup("userid"); ok {
		d.VictimUserID = asInt32(v)
	}
	if v, ok := e.Lookup("attacker"); ok {
		d.AttackerID = asInt32(v)
	}
	if v, ok := e.Lookup("assister"); ok {
		d.AssisterID = asInt32(v)
	}
	if v, ok := e.Lookup("weapon"); ok {
		d.Weapon = v.String
	}
	if v, ok := e.Lookup("weapon_logclassname"); ok {
		d.WeaponLogClassName = v.String
	}
	if v, ok := e.Lookup("crit"); ok {
		d.Crit = v.Boolean
	}
	return d
}

func (e *RawEvent) asPlayerSpawn() PlayerSpawn {
	var s PlayerSpawn
	if v, ok := e.Lookup("userid"); ok {
		s.UserID = asInt32(v)
	}
	if v, ok := e.Lookup("team"); ok {
		s.Team = asInt32(v)
	}
	if v, ok := e.Lookup("class"); ok {
		s.Class = asInt32(v)
	}
	return s
}

func (e *RawEvent) asTeamPlayRoundWin() TeamPlayRoundWin {
	var w TeamPlayRoundWin
	if v, ok := e.Lookup("team"); ok {
		w.Team = asInt32(v)
	}
	if v, ok := e.Lookup("win_reason"); ok {
		w.WinReason = asInt32(v)
	}
	return w
}

// asInt32 widens whichever integer kind a Value actually holds; game
// events mix Byte/Short/Long for what are conceptually all small integers.
func asInt32(v Value) int32 {
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
