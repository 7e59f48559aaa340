package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/models"
	templates "github.com/linesmerrill/civic-report-api/templates/html"
)

const resolvedSubject = "Your report has been resolved"

// Mailer sends emails about report lifecycle changes
type Mailer interface {
	SendReportResolved(ctx context.Context, user models.User, report models.Report) error
}

// NewMailer returns a SendGrid mailer, or a no-op mailer when apiKey is empty
func NewMailer(apiKey, from string) Mailer {
	if apiKey == "" {
		return NoopMailer{}
	}
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Civic Reports", from),
	}
}

// SendgridMailer delivers emails through the SendGrid v3 API
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// SendReportResolved tells the reporter their report was resolved
func (m *SendgridMailer) SendReportResolved(ctx context.Context, user models.User, report models.Report) error {
	message := buildResolvedMessage(m.from, user, report)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	zap.S().Infow("resolution email sent", "username", user.Username, "report", report.ID.Hex(), "statusCode", response.StatusCode)
	return nil
}

func buildResolvedMessage(from *mail.Email, user models.User, report models.Report) *mail.SGMailV3 {
	resolvedAt := ""
	if report.ResolvedAt != nil {
		resolvedAt = report.ResolvedAt.Time().UTC().Format("2006-01-02 15:04 MST")
	}
	to := mail.NewEmail(user.FullName, user.Email)
	plainTextContent := fmt.Sprintf("Hi %s,\n\nYour report at %s was resolved on %s.\n\n%s",
		user.FullName, report.Location, resolvedAt, report.Description)
	htmlContent := templates.RenderReportResolvedEmail(user.FullName, report.Location, report.Description, resolvedAt)
	return mail.NewSingleEmail(from, resolvedSubject, to, plainTextContent, htmlContent)
}

// NoopMailer is used when no mail provider is configured
type NoopMailer struct{}

// SendReportResolved only logs
func (NoopMailer) SendReportResolved(_ context.Context, user models.User, report models.Report) error {
	zap.S().Debugw("mail provider not configured, skipping resolution email", "username", user.Username, "report", report.ID.Hex())
	return nil
}
