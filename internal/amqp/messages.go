package amqp

import (
	"encoding/json"
	"time"
)

const (
	NotificationBudgetAlert  = "budget_alert"
	NotificationGoalReminder = "goal_reminder"
)

// NotificationMessage carries a single user-facing notification from the
// scheduler jobs to the delivery worker.
type NotificationMessage struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	EntityID  string    `json:"entity_id,omitempty"` // budget or goal id
	Percent   float64   `json:"percent,omitempty"`   // budget consumption or goal progress
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetAlert(userID, budgetID, title, body string, percent float64) *NotificationMessage {
	return &NotificationMessage{
		Kind:      NotificationBudgetAlert,
		UserID:    userID,
		EntityID:  budgetID,
		Title:     title,
		Body:      body,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

func NewGoalReminder(userID, goalID, title, body string, percent float64) *NotificationMessage {
	return &NotificationMessage{
		Kind:      NotificationGoalReminder,
		UserID:    userID,
		EntityID:  goalID,
		Title:     title,
		Body:      body,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
