package bill

import (
	"time"

	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/extraction"
)

// Result is the outcome for one page of one uploaded file: either extracted
// data or a human-readable error string, never both.
type Result struct {
	File  string                 `json:"file"`
	Data  *extraction.BillFields `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// Batch records the ordered results of one processed upload batch
type Batch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Results   []Result  `json:"results"`
}

// Upload is one file received for processing
type Upload struct {
	Filename string
	Data     []byte
}

// HealthStatus reports the availability of the service's components
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
