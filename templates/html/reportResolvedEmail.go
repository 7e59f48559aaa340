package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderReportResolvedEmail generates the HTML sent to a citizen once their report has
// been resolved. Every value is HTML-escaped, the description keeps its line breaks.
func RenderReportResolvedEmail(fullName, location, description, resolvedAt string) string {
	safeName := html.EscapeString(fullName)
	safeLocation := html.EscapeString(location)
	safeDescription := strings.ReplaceAll(html.EscapeString(description), "\n", "<br>")
	safeResolvedAt := html.EscapeString(resolvedAt)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Your report has been resolved</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f3f4f6; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #059669 0%%, #10b981 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .report { background-color: #f9fafb; border-left: 4px solid #10b981; padding: 16px 20px; margin: 20px 0; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Your report has been resolved</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p>Thank you for reporting an issue in your community. It was marked as resolved on %s.</p>
      <div class="report">
        <p><strong>Location:</strong> %s</p>
        <p>%s</p>
      </div>
    </div>
    <div class="footer">
      <p>You are receiving this email because you submitted a civic issue report.</p>
    </div>
  </div>
</body>
</html>`, safeName, safeResolvedAt, safeLocation, safeDescription)
}
