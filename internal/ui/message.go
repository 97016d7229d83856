package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flavor/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgControllerEvent MsgKind = iota
	MsgUpdatesClosed
	MsgActionDone
)

// actionResult is the payload of [MsgActionDone].
type actionResult struct {
	status string
	err    error
}

// controllerEventMsg is the constructor for [MsgControllerEvent]
func controllerEventMsg(ev tasks.Event) Msg {
	return Msg{kind: MsgControllerEvent, data: ev}
}

// updatesClosedMsg is the constructor for [MsgUpdatesClosed]
func updatesClosedMsg() Msg {
	return Msg{kind: MsgUpdatesClosed}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{status: status, err: err}}
}
