package errors

import (
	"errors"
	"log/slog"

	"github.com/aws/smithy-go"
)

// Diagnostics extracts the provider's structured diagnostic payload from an error chain
// as slog attributes. It understands smithy API errors, AWS HTTP response errors and
// the provider fields carried on *Error. An empty slice is returned when nothing is known.
func Diagnostics(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	var attrs []slog.Attr

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs,
			slog.String("error_code", apiErr.ErrorCode()),
			slog.String("error_message", apiErr.ErrorMessage()),
			slog.String("error_fault", apiErr.ErrorFault().String()),
		)
	}

	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		attrs = append(attrs, slog.Int("status_code", status.HTTPStatusCode()))
	}

	var reqID interface{ ServiceRequestID() string }
	if errors.As(err, &reqID) && reqID.ServiceRequestID() != "" {
		attrs = append(attrs, slog.String("request_id", reqID.ServiceRequestID()))
	}

	// S3 responses also carry the extended request id
	var hostID interface{ ServiceHostID() string }
	if errors.As(err, &hostID) && hostID.ServiceHostID() != "" {
		attrs = append(attrs, slog.String("host_id", hostID.ServiceHostID()))
	}

	var opErr *Error
	if errors.As(err, &opErr) && apiErr == nil {
		if opErr.ProviderCode != "" {
			attrs = append(attrs, slog.String("error_code", opErr.ProviderCode))
		}
		if opErr.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", opErr.RequestID))
		}
		if opErr.StatusCode != 0 {
			attrs = append(attrs, slog.Int("status_code", opErr.StatusCode))
		}
	}

	return attrs
}
