package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeEvent announces that a record was created, updated or deleted.
// Consumers fetch anything beyond these identifiers from the database.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	EntityID   int64     `json:"entity_id"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *ChangeEvent) Validate() error {
	if e.Entity == "" || e.Action == "" {
		return fmt.Errorf("change event missing entity or action")
	}
	if e.UserID <= 0 {
		return fmt.Errorf("change event missing user id")
	}
	return nil
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
