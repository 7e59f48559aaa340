// Package docs Civic Report API.
//
// Documentation of the Civic Report API.
//
//     Schemes: http, https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//     - multipart/form-data
//
//     Produces:
//     - application/json
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/civic-report-api/api/handlers"
	"github.com/linesmerrill/civic-report-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/register users register
// Registers a new citizen or admin. Username and email must be unused.
// responses:
//   201: messageResponse
//   400: errorResponse
//   409: errorResponse

// swagger:route POST /api/login users login
// Checks a username and password. No session is issued.
// responses:
//   200: loginResponse
//   401: errorResponse

// The user that logged in, without the password.
// swagger:response loginResponse
type loginResponseWrapper struct {
	// in:body
	Body handlers.LoginResponse
}

// swagger:route GET /api/reports reports listReports
// Lists every report, newest first.
// responses:
//   200: reportsResponse

// All reports ordered by reportedAt descending
// swagger:response reportsResponse
type reportsResponseWrapper struct {
	// in:body
	Body []models.Report
}

// swagger:route POST /api/reports reports createReport
// Submits a report, optionally with a jpeg, png or gif image of at most 5MB in the "image" field.
// responses:
//   201: reportResponse
//   400: errorResponse

// swagger:route PUT /api/reports/{id} reports updateReportStatus
// Moves a report to pending, in-progress or resolved.
// responses:
//   200: reportResponse
//   400: errorResponse
//   404: errorResponse

// A single report
// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route DELETE /api/reports/{id} reports deleteReport
// Deletes a report and its image.
// responses:
//   204: description: report deleted
//   404: errorResponse

// swagger:parameters updateReportStatus deleteReport
type reportIDParam struct {
	// in:path
	// required: true
	ID string `json:"id"`
}

// swagger:response messageResponse
type messageResponseWrapper struct {
	// in:body
	Body struct {
		Message string `json:"message"`
	}
}

// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
