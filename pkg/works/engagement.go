package works

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status of a client engagement. Any status may follow any other.
type Status string

const (
	// StatusProposalGiven is the initial state
	StatusProposalGiven Status = "Proposal Given"
	// StatusNeedToStart means the client accepted
	StatusNeedToStart Status = "Need to Start"
	// StatusOngoing means work is running
	StatusOngoing Status = "Ongoing"
	// StatusCompleted means the engagement is delivered
	StatusCompleted Status = "Completed"
)

// ParseStatus normalizes an engagement status
func ParseStatus(value string) (Status, error) {
	for _, status := range []Status{StatusProposalGiven, StatusNeedToStart, StatusOngoing, StatusCompleted} {
		if strings.EqualFold(strings.TrimSpace(value), string(status)) {
			return status, nil
		}
	}

	return "", errors.Wrapf(communication.ErrValidation, "unknown work status %q", value)
}

// UnmarshalJSON normalizes the status spelling
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

// Engagement is a piece of client work tracked by the agency
type Engagement struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	ClientName     string             `json:"clientName" bson:"clientName" validate:"required"`
	CompanyName    string             `json:"companyName" bson:"companyName" validate:"required"`
	Scope          string             `json:"scope" bson:"scope" validate:"required"`
	Technology     string             `json:"technology,omitempty" bson:"technology,omitempty"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	Price          float64            `json:"price" bson:"price" validate:"gte=0"`
	StartDate      *time.Time         `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate        *time.Time         `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Status         Status             `json:"status" bson:"status" validate:"required"`
	CreatedBy      primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	LastModifiedAt time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt"`
}

// EngagementPatch holds the fields of a partial update
type EngagementPatch struct {
	ClientName  *string    `json:"clientName" bson:"clientName,omitempty"`
	CompanyName *string    `json:"companyName" bson:"companyName,omitempty"`
	Scope       *string    `json:"scope" bson:"scope,omitempty"`
	Technology  *string    `json:"technology" bson:"technology,omitempty"`
	Description *string    `json:"description" bson:"description,omitempty"`
	Price       *float64   `json:"price" bson:"price,omitempty"`
	StartDate   *time.Time `json:"startDate" bson:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate" bson:"endDate,omitempty"`
	Status      *Status    `json:"status" bson:"status,omitempty"`
}

// Apply copies the present fields onto engagement
func (p *EngagementPatch) Apply(engagement *Engagement) {
	if p.ClientName != nil {
		engagement.ClientName = *p.ClientName
	}
	if p.CompanyName != nil {
		engagement.CompanyName = *p.CompanyName
	}
	if p.Scope != nil {
		engagement.Scope = *p.Scope
	}
	if p.Technology != nil {
		engagement.Technology = *p.Technology
	}
	if p.Description != nil {
		engagement.Description = *p.Description
	}
	if p.Price != nil {
		engagement.Price = *p.Price
	}
	if p.StartDate != nil {
		engagement.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		engagement.EndDate = p.EndDate
	}
	if p.Status != nil {
		engagement.Status = *p.Status
	}
}

// setDocument returns the $set document of the present fields
func (p *EngagementPatch) setDocument(lastModifiedAt time.Time) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	err = bson.Unmarshal(raw, &set)
	if err != nil {
		return nil, err
	}

	set["lastModifiedAt"] = lastModifiedAt
	return set, nil
}
