// Package pipeline orchestrates queueing, sending and receiving messages
// through an ordered list of hooks around each operation.
package pipeline

import (
	"context"

	"github.com/oggyb/sms-framework/internal/domain/message"
)

// Stage identifies a point in the queue/send/incoming flow.
type Stage int

const (
	StagePreProcess Stage = iota
	StageQueuePreProcess
	StageQueuePostProcess
	StageOutgoingPreProcess
	StageOutgoingPostProcess
	StageIncomingPreProcess
	StageIncomingPostProcess
	StagePostProcess
)

var stageNames = map[Stage]string{
	StagePreProcess:          "pre_process",
	StageQueuePreProcess:     "queue_pre_process",
	StageQueuePostProcess:    "queue_post_process",
	StageOutgoingPreProcess:  "outgoing_pre_process",
	StageOutgoingPostProcess: "outgoing_post_process",
	StageIncomingPreProcess:  "incoming_pre_process",
	StageIncomingPostProcess: "incoming_post_process",
	StagePostProcess:         "post_process",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// HandlerFunc receives the current ordered collection of messages and
// returns the collection the next hook should see. It may modify, split or
// replace messages.
type HandlerFunc func(ctx context.Context, msgs []*message.Message) ([]*message.Message, error)

// Hook is a named handler bound to a stage.
type Hook struct {
	Stage  Stage
	Name   string
	Handle HandlerFunc
}
