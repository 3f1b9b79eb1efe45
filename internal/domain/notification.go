package domain

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
