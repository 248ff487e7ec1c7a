package realtime

import (
	"context"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	EventUpdateRequestSubmitted = "update_request.submitted"
	EventUpdateRequestDecided   = "update_request.decided"
)

type Event struct {
	Type          string                       `json:"type"`
	UpdateRequest *domain.BookingUpdateRequest `json:"update_request"`
}

// Notifier pushes update-request events to connected users: submissions go to every online
// admin, decisions go to the requester.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) UpdateRequestSubmitted(ctx context.Context, req *domain.BookingUpdateRequest) {
	sent := n.hub.SendToAdmins(Event{Type: EventUpdateRequestSubmitted, UpdateRequest: req})
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"request_id": req.ID,
		"delivered":  sent,
	}).Debug("update request submission pushed")
}

func (n *Notifier) UpdateRequestDecided(ctx context.Context, req *domain.BookingUpdateRequest) {
	ok := n.hub.SendToUser(req.UserID, Event{Type: EventUpdateRequestDecided, UpdateRequest: req})
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    req.UserID,
		"delivered":  ok,
	}).Debug("update request decision pushed")
}
