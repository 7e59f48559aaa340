package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/civic-report-api/models"
)

func TestNew(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "mongodb://127.0.0.1:27017", conf.URL)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("DB_URI", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ORPHAN_GRACE_PERIOD", "")
	t.Setenv("REQUEST_TIMEOUT", "nonsense")
	conf := New()

	assert.Equal(t, "mongodb://localhost:27017", conf.URL)
	assert.Equal(t, "civic_reports", conf.DatabaseName)
	assert.Equal(t, "3000", conf.Port)
	assert.Equal(t, "uploads", conf.UploadDir)
	assert.Equal(t, "local", conf.StorageBackend)
	assert.Equal(t, time.Hour, conf.OrphanGracePeriod)
	assert.Equal(t, 30*time.Second, conf.RequestTimeout)
}

func TestNewDurations(t *testing.T) {
	t.Setenv("ORPHAN_GRACE_PERIOD", "15m")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	conf := New()

	assert.Equal(t, 15*time.Minute, conf.OrphanGracePeriod)
	assert.Equal(t, 5*time.Second, conf.RequestTimeout)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body models.ErrorMessageResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "error it borked", body.Response.Message)
	assert.Equal(t, "bad request", body.Response.Error)
}

func TestErrorStatusHidesServerErrorDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("failed to fetch reports", http.StatusInternalServerError, rr, errors.New("connection refused 10.0.0.3:27017"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.3")
	assert.Contains(t, rr.Body.String(), "Internal Server Error")
}
