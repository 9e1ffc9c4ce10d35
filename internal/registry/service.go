package registry

import (
	"time"

	"github.com/petra-dev/upwatch/internal/checker"
)

// Service is a registered check target together with its last known state.
// The evaluation core never sees this type; it works on the CheckRequest
// derived from it.
type Service struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Mode           checker.Mode   `json:"mode"`
	URL            string         `json:"url"`
	ExtractionPath string         `json:"extractionPath,omitempty"`
	Selector       string         `json:"selector,omitempty"`
	ExpectedValue  *string        `json:"expectedValue,omitempty"`
	Status         checker.Status `json:"status"`
	LastChecked    *time.Time     `json:"lastChecked,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// CheckRequest derives the evaluator input for this service.
func (s Service) CheckRequest() checker.CheckRequest {
	return checker.CheckRequest{
		Mode:           s.Mode,
		URL:            s.URL,
		ExtractionPath: s.ExtractionPath,
		Selector:       s.Selector,
		ExpectedValue:  s.ExpectedValue,
	}
}
