package model

import "time"

const (
	ClassActive   = "active"
	ClassInactive = "inactive"
)

// Class is read-only to this service; another system owns its lifecycle.
type Class struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string    `json:"name" bson:"name"`
	InstructorName string    `json:"instructor_name,omitempty" bson:"instructor_name,omitempty"`
	Status         string    `json:"status" bson:"status"`
	StartDate      time.Time `json:"start_date" bson:"start_date"`
	EndDate        time.Time `json:"end_date" bson:"end_date"`
	MaxCapacity    int       `json:"max_capacity" bson:"max_capacity"`
}

type ClassSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	InstructorName string `json:"instructor_name,omitempty"`
}

func (c *Class) Summary() *ClassSummary {
	return &ClassSummary{
		ID:             c.ID,
		Name:           c.Name,
		InstructorName: c.InstructorName,
	}
}
