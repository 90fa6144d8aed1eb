package models

// AttemptResult captures one HTTP attempt (HEAD or GET) against a target.
// On transport failure Error is set and the remaining fields are
// best-effort; callers must not assume a status code is present.
type AttemptResult struct {
	StatusCode int               `json:"status_code,omitempty"`
	FinalURL   string            `json:"final_url"`
	Redirects  []string          `json:"redirects,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Content    string            `json:"content,omitempty"`
	Filesize   int64             `json:"filesize,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// FetchResult is the merged outcome of the HEAD and GET attempts for one
// scan. FinalURL prefers GET's landing URL, then HEAD's, then the input.
type FetchResult struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url"`
	Head       AttemptResult `json:"head"`
	Get        AttemptResult `json:"get"`
	DurationMs int64         `json:"duration_ms"`
}

// FormInput describes a single input element inside a form.
type FormInput struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Form is one form element with its inputs. HasPassword is true when any
// input has type "password" or "password" appears in its name.
type Form struct {
	Method      string      `json:"method"`
	Action      string      `json:"action"`
	Inputs      []FormInput `json:"inputs,omitempty"`
	HasPassword bool        `json:"has_password"`
}

// ExtractedFeatures is the structural digest of a fetched HTML page.
type ExtractedFeatures struct {
	Title           string   `json:"title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    string   `json:"meta_keywords,omitempty"`
	Links           []string `json:"links,omitempty"`
	Forms           []Form   `json:"forms,omitempty"`
	Scripts         []string `json:"scripts,omitempty"`
	Images          []string `json:"images,omitempty"`
	Iframes         []string `json:"iframes,omitempty"`
	CleanText       string   `json:"clean_text,omitempty"`
}

// Verdict labels for RiskReport.
const (
	VerdictSafe       = "SAFE"
	VerdictSuspicious = "SUSPICIOUS"
	VerdictDangerous  = "DANGEROUS"
)

// RiskReport is the scoring engine output. Score is the sum of component
// penalties capped at 100, rounded to one decimal. Explanations are
// appended in rule evaluation order.
type RiskReport struct {
	Score        float64            `json:"score"`
	Verdict      string             `json:"verdict"`
	Components   map[string]float64 `json:"components"`
	Explanations []string           `json:"explanations"`
}

// ScanResult is the full payload of one scan, and the unit stored in the
// result cache.
type ScanResult struct {
	URL       string            `json:"url"`
	Fetch     FetchResult       `json:"fetch"`
	Extracted ExtractedFeatures `json:"extracted"`
	Risk      RiskReport        `json:"risk"`
}

// Summary condenses a ScanResult for the /scan endpoint and CLI output.
type Summary struct {
	Status       string   `json:"status"`
	URL          string   `json:"url"`
	Verdict      string   `json:"verdict"`
	Score        float64  `json:"score"`
	Title        string   `json:"title,omitempty"`
	FinalURL     string   `json:"final_url"`
	Filesize     int64    `json:"filesize"`
	Explanations []string `json:"explanations,omitempty"`
}

// Summarize builds the condensed view, keeping at most the first three
// explanations.
func (r *ScanResult) Summarize() Summary {
	expl := r.Risk.Explanations
	if len(expl) > 3 {
		expl = expl[:3]
	}
	return Summary{
		Status:       "ok",
		URL:          r.URL,
		Verdict:      r.Risk.Verdict,
		Score:        r.Risk.Score,
		Title:        r.Extracted.Title,
		FinalURL:     r.Fetch.FinalURL,
		Filesize:     r.Fetch.Get.Filesize,
		Explanations: expl,
	}
}
