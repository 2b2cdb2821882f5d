package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
)

type outbound struct {
	Type           string          `json:"type"`
	Target         *channel.Target `json:"target,omitempty"`
	VariableValues map[string]any  `json:"variableValues,omitempty"`
}

type inboundMessage struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType"`
	Role           string `json:"role"`
	Transcript     string `json:"transcript"`
}

type inbound struct {
	Type    string          `json:"type"`
	Reason  string          `json:"reason,omitempty"`
	Message *inboundMessage `json:"message,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// decode maps one gateway frame onto an event. ok is false for frames the
// channel does not surface.
func decode(data []byte) (channel.Event, bool, error) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, false, errorsx.Wrap(err, errorsx.ReasonChannelEvent)
	}
	switch channel.EventKind(in.Type) {
	case channel.KindCallStarted:
		return channel.CallStarted{}, true, nil
	case channel.KindCallEnded:
		return channel.CallEnded{Reason: in.Reason}, true, nil
	case channel.KindSpeechStarted:
		return channel.SpeechStarted{}, true, nil
	case channel.KindSpeechEnded:
		return channel.SpeechEnded{}, true, nil
	case channel.KindMessage:
		if in.Message == nil {
			return nil, false, nil
		}
		return channel.Message{
			Type:           in.Message.Type,
			TranscriptType: in.Message.TranscriptType,
			Role:           in.Message.Role,
			Transcript:     in.Message.Transcript,
		}, true, nil
	case channel.KindError:
		return channel.NewError(errors.New(errorText(in.Error))), true, nil
	default:
		return nil, false, nil
	}
}

// errorText accepts either a bare string or an object with a message field.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown channel error"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Type != "" {
			return obj.Type
		}
	}
	return string(raw)
}
