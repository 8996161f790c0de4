package app

import "github.com/dkeye/voicewatch/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	Disconnect
)

// Policy decides what happens to a subscriber whose send buffer is full.
type Policy interface {
	OnBackPressure(sid core.SessionID) BackpressureAction
}

// SimplePolicy disconnects slow subscribers; they resync on reconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SessionID) BackpressureAction {
	return Disconnect
}

// LossyPolicy drops the message and keeps the subscriber.
type LossyPolicy struct{}

func (LossyPolicy) OnBackPressure(core.SessionID) BackpressureAction {
	return DropMessage
}

func PolicyByName(name string) Policy {
	if name == "drop" {
		return LossyPolicy{}
	}
	return SimplePolicy{}
}
