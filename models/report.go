package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity is the triage label of a report
type Severity string

// Severities accepted on submission
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Status is the lifecycle stage of a report
type Status string

// Statuses a report can move between
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Report holds the structure for the reports collection in mongo
type Report struct {
	ID               primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	ReportedBy       string              `json:"reportedBy" bson:"reportedBy"`
	Location         string              `json:"location" bson:"location"`
	Latitude         *float64            `json:"latitude" bson:"latitude"`
	Longitude        *float64            `json:"longitude" bson:"longitude"`
	Description      string              `json:"description" bson:"description"`
	Severity         Severity            `json:"severity" bson:"severity"`
	Status           Status              `json:"status" bson:"status"`
	ImageDescription string              `json:"imageDescription,omitempty" bson:"imageDescription,omitempty"`
	ImageFilename    string              `json:"imageFilename,omitempty" bson:"imageFilename,omitempty"`
	ReportedAt       primitive.DateTime  `json:"reportedAt" bson:"reportedAt"`
	ResolvedAt       *primitive.DateTime `json:"resolvedAt" bson:"resolvedAt"`
}

// NewReport returns a pending report stamped with now. An empty severity falls back
// to low.
func NewReport(reportedBy, location, description string, severity Severity, now time.Time) Report {
	if severity == "" {
		severity = SeverityLow
	}
	return Report{
		ID:          primitive.NewObjectID(),
		ReportedBy:  reportedBy,
		Location:    location,
		Description: description,
		Severity:    severity,
		Status:      StatusPending,
		ReportedAt:  primitive.NewDateTimeFromTime(now),
	}
}

// ApplyStatus moves the report to status. Resolving stamps ResolvedAt with now, any
// other status clears it, including a report that was never resolved.
func (r *Report) ApplyStatus(status Status, now time.Time) {
	r.Status = status
	if status == StatusResolved {
		resolvedAt := primitive.NewDateTimeFromTime(now)
		r.ResolvedAt = &resolvedAt
		return
	}
	r.ResolvedAt = nil
}

// StatusUpdate builds the $set document that ApplyStatus performs in the store
func StatusUpdate(status Status, now time.Time) bson.M {
	var r Report
	r.ApplyStatus(status, now)
	return bson.M{"$set": bson.M{
		"status":     r.Status,
		"resolvedAt": r.ResolvedAt,
	}}
}
