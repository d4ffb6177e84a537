package stream

import (
	"encoding/json"
	"fmt"
)

const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgCommand = "command"
	MsgError   = "error"
)

const (
	DefaultTickHz = 60
	BroadcastHz   = 20
)

// ActionResume restarts stepping after a failed step.
const ActionResume = "resume"

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty envelope type")
	}
	if payload == nil {
		return nil, fmt.Errorf("encode %s: nil payload", t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}

type Welcome struct {
	ClientID int              `json:"clientId"`
	Name     string           `json:"name"`
	TickHz   int              `json:"tickHz"`
	Dt       float64          `json:"dt"`
	Bodies   []BodyInfo       `json:"bodies"`
	Springs  []SpringSnapshot `json:"springs"`
}

// BodyInfo is the part of a body that never changes while streaming.
type BodyInfo struct {
	Label  string  `json:"label"`
	Mass   float64 `json:"mass"`
	Radius float64 `json:"radius"`
}

type SpringSnapshot struct {
	A int     `json:"a"`
	B int     `json:"b"`
	K float64 `json:"k"`
}

type State struct {
	Tick          int            `json:"tick"`
	Time          float64        `json:"time"`
	Running       bool           `json:"running"`
	KineticEnergy float64        `json:"ke"`
	Repulsion     float64        `json:"repulsion"`
	Friction      float64        `json:"friction"`
	Bodies        []BodySnapshot `json:"bodies"`
}

// BodySnapshot is indexed like Welcome.Bodies.
type BodySnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Locked bool    `json:"locked,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}
