package attendance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/users"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status of a day
type Status string

const (
	// StatusPresent is the default check-in
	StatusPresent Status = "Present"
	// StatusAbsent marks a missed day
	StatusAbsent Status = "Absent"
	// StatusLeave marks an approved day off
	StatusLeave Status = "Leave"
)

// ParseStatus normalizes an attendance status
func ParseStatus(value string) (Status, error) {
	for _, status := range []Status{StatusPresent, StatusAbsent, StatusLeave} {
		if strings.EqualFold(strings.TrimSpace(value), string(status)) {
			return status, nil
		}
	}

	return "", errors.Wrapf(communication.ErrValidation, "unknown attendance status %q", value)
}

// UnmarshalJSON normalizes the status spelling, an empty status stays empty
func (s *Status) UnmarshalJSON(data []byte) error {
	var value string
	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}

	if value == "" {
		*s = ""
		return nil
	}

	status, err := ParseStatus(value)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Record is the attendance of one user on one calendar day
type Record struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	Date           time.Time          `json:"date" bson:"date"`
	Day            string             `json:"day" bson:"day"`
	Status         Status             `json:"status" bson:"status"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	LastModifiedAt time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt"`
}

// RecordView is a record with its user populated
type RecordView struct {
	Record `bson:",inline"`
	User   *users.Summary `json:"user,omitempty" bson:"user,omitempty"`
}
