package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"bazaar/internal/domain/service"

	"github.com/pkg/errors"
)

// Message attributes set on every account-linked event.
const (
	AttrEventType = "event_type"
	AttrProvider  = "provider"
	AttrUserID    = "user_id"
	AttrRequestID = "request_id"

	eventTypeAccountLinked = "account_linked"
)

// PushMessage is the body a Pub/Sub push subscription delivers. The local publisher
// produces the same shape so the worker handles both alike.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// encodeAccountLinked returns the payload, attributes and ordering key for event.
// Events for one user share an ordering key.
func encodeAccountLinked(event *service.AccountLinkedEvent) ([]byte, map[string]string, string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, nil, "", errors.Wrap(err, "failed to encode account-linked event")
	}

	userID := strconv.FormatInt(event.UserID, 10)
	attributes := map[string]string{
		AttrEventType: eventTypeAccountLinked,
		AttrProvider:  event.Provider,
		AttrUserID:    userID,
	}
	if event.RequestID != "" {
		attributes[AttrRequestID] = event.RequestID
	}

	return data, attributes, userID, nil
}

// DecodeAccountLinked extracts the event carried by a push message.
func DecodeAccountLinked(msg *PushMessage) (*service.AccountLinkedEvent, error) {
	if eventType, ok := msg.Message.Attributes[AttrEventType]; ok && eventType != eventTypeAccountLinked {
		return nil, errors.Errorf("unexpected event type %q", eventType)
	}

	data, err := base64.StdEncoding.DecodeString(msg.Message.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode message data")
	}

	event := &service.AccountLinkedEvent{}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, errors.Wrap(err, "failed to parse account-linked event")
	}

	return event, nil
}
