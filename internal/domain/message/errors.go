package message

import "errors"

var (
	// ErrDirection is returned when a message enters the pipeline without a direction.
	ErrDirection = errors.New("message direction is not set")
	// ErrRecipientRoute is returned when a message has no recipients or no
	// gateway can be resolved for one of them.
	ErrRecipientRoute = errors.New("recipient route error")
	// ErrValidation is returned for structurally invalid messages.
	ErrValidation = errors.New("invalid message")
	// ErrStorage is returned when a result or report is persisted without
	// its parent message.
	ErrStorage = errors.New("storage error")
	// ErrReportIntegrity is returned when a gateway completes a message
	// without the expected result or per-recipient reports.
	ErrReportIntegrity = errors.New("report integrity error")
	// ErrNotFound is returned by repositories when a message does not exist.
	ErrNotFound = errors.New("message not found")
)
