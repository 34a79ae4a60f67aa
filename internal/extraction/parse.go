package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseBillJSON normalizes the raw model reply: strips markdown fences,
// isolates the JSON object, maps the six documented keys (absent keys become
// empty strings) and back-fills a missing total from volume x rate.
func parseBillJSON(text string) (*BillFields, error) {
	raw := text
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: no JSON object found (response: %q)", ErrMalformedResponse, raw)
	}
	text = text[startIdx : endIdx+1]

	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %q)", ErrMalformedResponse, err, raw)
	}

	fields := &BillFields{
		PumpName:     fieldString(m, "Petrol Pump Name"),
		Date:         fieldString(m, "Date"),
		Product:      fieldString(m, "Product"),
		VolumeLitres: fieldString(m, "Volume(L)"),
		RatePerLitre: fieldString(m, "Rate per Litre"),
		TotalAmount:  fieldString(m, "Total Amount (Rs)"),
	}

	backfillTotal(fields)

	return fields, nil
}

// fieldString reads a key as a string, coercing numeric JSON values. Missing
// or null values become "".
func fieldString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// backfillTotal computes TotalAmount from VolumeLitres x RatePerLitre when
// the model left it empty and both factors are numeric. A non-empty model
// value always wins, and non-numeric factors leave the total untouched.
func backfillTotal(f *BillFields) {
	if strings.TrimSpace(f.TotalAmount) != "" {
		return
	}
	if f.VolumeLitres == "" || f.RatePerLitre == "" {
		return
	}

	volume, err := strconv.ParseFloat(strings.TrimSpace(f.VolumeLitres), 64)
	if err != nil {
		return
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(f.RatePerLitre), 64)
	if err != nil {
		return
	}
	if math.IsInf(volume, 0) || math.IsNaN(volume) || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return
	}

	total := math.Round(volume*rate*100) / 100
	f.TotalAmount = strconv.FormatFloat(total, 'f', -1, 64)
}
