package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewReportDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewReport("alice", "Main St", "Pothole", "", now)

	assert.False(t, r.ID.IsZero())
	assert.Equal(t, SeverityLow, r.Severity)
	assert.Equal(t, StatusPending, r.Status)
	assert.Nil(t, r.ResolvedAt)
	assert.Equal(t, primitive.NewDateTimeFromTime(now), r.ReportedAt)
}

func TestApplyStatusResolvedStampsResolvedAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewReport("alice", "Main St", "Pothole", SeverityHigh, now)

	r.ApplyStatus(StatusResolved, now.Add(time.Hour))
	if assert.NotNil(t, r.ResolvedAt) {
		assert.Equal(t, primitive.NewDateTimeFromTime(now.Add(time.Hour)), *r.ResolvedAt)
	}

	r.ApplyStatus(StatusPending, now.Add(2*time.Hour))
	assert.Nil(t, r.ResolvedAt)
}

func TestApplyStatusClearsEvenWhenNeverResolved(t *testing.T) {
	now := time.Now()
	r := NewReport("alice", "Main St", "Pothole", SeverityLow, now)
	stale := primitive.NewDateTimeFromTime(now)
	r.ResolvedAt = &stale

	r.ApplyStatus(StatusPending, now)
	assert.Nil(t, r.ResolvedAt)
}

func TestApplyStatusSequencesKeepResolvedAtConsistent(t *testing.T) {
	statuses := []Status{StatusPending, StatusInProgress, StatusResolved}
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	for i := 0; i < 200; i++ {
		r := NewReport("bob", "Elm St", "Broken light", SeverityMedium, now)
		for step := 0; step < 10; step++ {
			r.ApplyStatus(statuses[rng.Intn(len(statuses))], now.Add(time.Duration(step)*time.Minute))
			assert.Equal(t, r.Status == StatusResolved, r.ResolvedAt != nil)
		}
	}
}

func TestStatusUpdate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	resolved := StatusUpdate(StatusResolved, now)["$set"].(bson.M)
	assert.Equal(t, StatusResolved, resolved["status"])
	ts := primitive.NewDateTimeFromTime(now)
	assert.Equal(t, &ts, resolved["resolvedAt"])

	pending := StatusUpdate(StatusInProgress, now)["$set"].(bson.M)
	assert.Equal(t, StatusInProgress, pending["status"])
	assert.Nil(t, pending["resolvedAt"])
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("closed").Valid())
	assert.True(t, SeverityHigh.Valid())
	assert.False(t, Severity("critical").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
}
