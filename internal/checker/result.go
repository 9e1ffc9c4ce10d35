package checker

// Mode selects the extraction strategy for a check.
type Mode string

const (
	// ModeStructuredAPI extracts a value from a JSON response body by
	// walking a dot-separated field path.
	ModeStructuredAPI Mode = "structured-api"
	// ModeMarkupPage extracts the text of the first element matching a
	// CSS selector in an HTML response body.
	ModeMarkupPage Mode = "markup-page"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeStructuredAPI || m == ModeMarkupPage
}

// Status represents the health state of a service.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown"
)

// CheckRequest describes a single evaluation. ExtractionPath applies only
// to structured-api mode, Selector only to markup-page mode. A nil
// ExpectedValue means the result is classified by presence or truthiness
// of the extracted value instead of string equality.
type CheckRequest struct {
	Mode           Mode    `json:"mode"`
	URL            string  `json:"url"`
	ExtractionPath string  `json:"extractionPath,omitempty"`
	Selector       string  `json:"selector,omitempty"`
	ExpectedValue  *string `json:"expectedValue,omitempty"`
}

// CheckResult is the outcome of a single evaluation. Value holds the raw
// extracted value when extraction succeeded, regardless of how the
// comparison went. Error is set only when Status is not up.
type CheckResult struct {
	Status Status `json:"status"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

func down(reason string) CheckResult {
	return CheckResult{Status: StatusDown, Error: reason}
}

func unknown(reason string) CheckResult {
	return CheckResult{Status: StatusUnknown, Error: reason}
}
