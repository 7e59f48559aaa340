package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
	"github.com/linesmerrill/civic-report-api/notifications"
	"github.com/linesmerrill/civic-report-api/storage"
)

const (
	// multipart bodies may carry a full size image plus the text fields
	maxMultipartBody = storage.MaxImageSize + 1<<20
	// maxFormBody caps bodies that only carry text fields
	maxFormBody = 1 << 20
)

// Report handles report-related requests
type Report struct {
	DB      databases.ReportDatabase
	UDB     databases.UserDatabase
	Storage storage.FileStorage
	Mailer  notifications.Mailer
	Feed    *ReportFeed
}

// reportForm is the submission as received, before validation
type reportForm struct {
	Location         string
	Description      string
	Severity         string
	ReportedBy       string
	ImageDescription string
	Latitude         *float64
	Longitude        *float64
}

type imageUpload struct {
	file   multipart.File
	header *multipart.FileHeader
}

// ReportsHandler returns every report, newest first
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "reportedAt", Value: -1}})
	dbResp, err := re.DB.Find(ctx, bson.M{}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch reports", http.StatusInternalServerError, w, err)
		return
	}
	// the page expects an array even when there is nothing to show
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateReportHandler creates a new report, storing the attached image first
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	form, upload, err := parseReportForm(w, r)
	if err != nil {
		config.ErrorStatus("failed to parse report", statusFromError(err), w, err)
		return
	}
	if upload != nil {
		defer upload.file.Close()
	}

	now := time.Now()
	report, err := form.toReport(now)
	if err != nil {
		config.ErrorStatus("missing or invalid report fields", statusFromError(err), w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if upload != nil {
		h := upload.header
		if err = storage.ValidateImage(h.Filename, h.Header.Get("Content-Type"), h.Size); err != nil {
			config.ErrorStatus("invalid image", statusFromError(err), w, err)
			return
		}
		filename := storage.GenerateFilename(h.Filename, now)
		if err = re.Storage.Save(ctx, filename, upload.file); err != nil {
			config.ErrorStatus("failed to store image", http.StatusInternalServerError, w, err)
			return
		}
		report.ImageFilename = filename
	}

	if err = re.DB.InsertOne(ctx, report); err != nil {
		if report.ImageFilename != "" {
			re.removeImage(report.ImageFilename)
		}
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("report created", "report", report.ID.Hex(), "reportedBy", report.ReportedBy, "severity", report.Severity)
	re.Feed.Publish(ReportCreated, report)

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateReportStatusHandler moves a report to a new status and returns it
func (re Report) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Status models.Status `json:"status"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Status == "" {
		config.ErrorStatus("status is required", http.StatusBadRequest, w, fmt.Errorf("%w: status", ErrMissingField))
		return
	}
	if !requestBody.Status.Valid() {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, fmt.Errorf("%w: status %q", ErrInvalidField, requestBody.Status))
		return
	}

	filter, err := databases.IDFilter(mux.Vars(r)["id"])
	if err != nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.DB.FindOneAndUpdate(ctx, filter, models.StatusUpdate(requestBody.Status, time.Now()))
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			config.ErrorStatus("report not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("report status updated", "report", report.ID.Hex(), "status", report.Status)

	if report.Status == models.StatusResolved {
		re.notifyResolved(*report)
	}
	re.Feed.Publish(ReportUpdated, *report)

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteReportHandler deletes a report and, best effort, its image
func (re Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := databases.IDFilter(mux.Vars(r)["id"])
	if err != nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.DB.FindOneAndDelete(ctx, filter)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			config.ErrorStatus("report not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to delete report", http.StatusInternalServerError, w, err)
		return
	}

	if report.ImageFilename != "" {
		re.removeImage(report.ImageFilename)
	}
	zap.S().Infow("report deleted", "report", report.ID.Hex())
	re.Feed.Publish(ReportDeleted, *report)

	w.WriteHeader(http.StatusNoContent)
}

// UploadHandler serves a stored image
func (re Report) UploadHandler(w http.ResponseWriter, r *http.Request) {
	re.Storage.Serve(w, r, mux.Vars(r)["filename"])
}

// removeImage deletes a stored image. Failures are logged and otherwise ignored, the
// orphaned upload sweep gets another chance at the file.
func (re Report) removeImage(filename string) {
	ctx, cancel := api.Detached()
	defer cancel()
	if err := re.Storage.Delete(ctx, filename); err != nil {
		zap.S().Warnw("failed to delete report image", "filename", filename, "error", err)
	}
}

// notifyResolved emails the reporter in the background
func (re Report) notifyResolved(report models.Report) {
	if re.Mailer == nil || re.UDB == nil {
		return
	}
	go func() {
		ctx, cancel := api.Detached()
		defer cancel()

		user, err := re.UDB.FindOne(ctx, bson.M{"username": report.ReportedBy})
		if err != nil {
			zap.S().Warnw("no user to notify about resolved report", "report", report.ID.Hex(), "reportedBy", report.ReportedBy, "error", err)
			return
		}
		if err = re.Mailer.SendReportResolved(ctx, *user, report); err != nil {
			zap.S().Warnw("failed to send resolution email", "report", report.ID.Hex(), "error", err)
		}
	}()
}

func (f reportForm) toReport(now time.Time) (models.Report, error) {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"location", f.Location},
		{"description", f.Description},
		{"severity", f.Severity},
		{"reportedBy", f.ReportedBy},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return models.Report{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	severity := models.Severity(f.Severity)
	if !severity.Valid() {
		return models.Report{}, fmt.Errorf("%w: severity %q", ErrInvalidField, f.Severity)
	}

	report := models.NewReport(f.ReportedBy, f.Location, f.Description, severity, now)
	report.ImageDescription = f.ImageDescription
	report.Latitude = f.Latitude
	report.Longitude = f.Longitude
	return report, nil
}

// parseReportForm reads a submission from a multipart, urlencoded or JSON body. Only
// multipart bodies can carry an image.
func parseReportForm(w http.ResponseWriter, r *http.Request) (reportForm, *imageUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		var body struct {
			Location         string      `json:"location"`
			Description      string      `json:"description"`
			Severity         string      `json:"severity"`
			ReportedBy       string      `json:"reportedBy"`
			ImageDescription string      `json:"imageDescription"`
			Latitude         interface{} `json:"latitude"`
			Longitude        interface{} `json:"longitude"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return reportForm{}, nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
		return reportForm{
			Location:         strings.TrimSpace(body.Location),
			Description:      strings.TrimSpace(body.Description),
			Severity:         strings.TrimSpace(body.Severity),
			ReportedBy:       strings.TrimSpace(body.ReportedBy),
			ImageDescription: strings.TrimSpace(body.ImageDescription),
			Latitude:         coordinateFromJSON(body.Latitude),
			Longitude:        coordinateFromJSON(body.Longitude),
		}, nil, nil

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return reportForm{}, nil, storage.ErrImageTooLarge
			}
			return reportForm{}, nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
		}

	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := r.ParseForm(); err != nil {
			return reportForm{}, nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
	}

	form := reportForm{
		Location:         strings.TrimSpace(r.FormValue("location")),
		Description:      strings.TrimSpace(r.FormValue("description")),
		Severity:         strings.TrimSpace(r.FormValue("severity")),
		ReportedBy:       strings.TrimSpace(r.FormValue("reportedBy")),
		ImageDescription: strings.TrimSpace(r.FormValue("imageDescription")),
		Latitude:         parseCoordinate(r.FormValue("latitude")),
		Longitude:        parseCoordinate(r.FormValue("longitude")),
	}
	if r.MultipartForm == nil {
		return form, nil, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return reportForm{}, nil, fmt.Errorf("%w: image: %v", ErrInvalidField, err)
	}
	return form, &imageUpload{file: file, header: header}, nil
}

// parseCoordinate turns a form value into a coordinate. Anything that is not a finite
// number becomes nil rather than an error.
func parseCoordinate(value string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func coordinateFromJSON(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return parseCoordinate(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		return parseCoordinate(v)
	}
	return nil
}
