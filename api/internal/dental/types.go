package dental

import "time"

type CavityRisk string

const (
	CavityLowRisk      CavityRisk = "Low Risk"
	CavityModerateRisk CavityRisk = "Moderate Risk"
	CavityHighRisk     CavityRisk = "High Risk"
)

type PlaqueLevel string

const (
	PlaqueLow      PlaqueLevel = "Low"
	PlaqueModerate PlaqueLevel = "Moderate"
	PlaqueHigh     PlaqueLevel = "High"
)

type Alignment string

const (
	AlignmentGood     Alignment = "Good"
	AlignmentModerate Alignment = "Moderate"
	AlignmentPoor     Alignment = "Poor"
)

type ToothColor string

const (
	ToothWhite          ToothColor = "White"
	ToothSlightlyYellow ToothColor = "Slightly Yellow"
	ToothYellow         ToothColor = "Yellow"
)

type GumHealth string

const (
	GumHealthy          GumHealth = "Healthy"
	GumSlightlyInflamed GumHealth = "Slightly Inflamed"
	GumInflamed         GumHealth = "Inflamed"
)

// Allowed values per field, in prompt order. Shared by the prompt text and the decoder.
var (
	CavityRisks  = []CavityRisk{CavityLowRisk, CavityModerateRisk, CavityHighRisk}
	PlaqueLevels = []PlaqueLevel{PlaqueLow, PlaqueModerate, PlaqueHigh}
	Alignments   = []Alignment{AlignmentGood, AlignmentModerate, AlignmentPoor}
	ToothColors  = []ToothColor{ToothWhite, ToothSlightlyYellow, ToothYellow}
	GumHealths   = []GumHealth{GumHealthy, GumSlightlyInflamed, GumInflamed}
)

const (
	MinScore     = 0
	MaxScore     = 100
	CareTipCount = 5
)

// Report is the validated result of one scan. Only Decode builds it.
type Report struct {
	CavityRisk   CavityRisk  `json:"cavity_risk"`
	PlaqueLevel  PlaqueLevel `json:"plaque_level"`
	Alignment    Alignment   `json:"alignment"`
	ToothColor   ToothColor  `json:"tooth_color"`
	GumHealth    GumHealth   `json:"gum_health"`
	OverallScore int         `json:"overall_score"`
	CareTips     []string    `json:"care_tips"`
}

// Tips returns a copy of the care tips so callers cannot mutate the report.
func (r Report) Tips() []string {
	return append([]string(nil), r.CareTips...)
}

// Analysis is what a finished scan hands back to the boundary.
type Analysis struct {
	ScanID      string    `json:"scan_id"`
	Engine      string    `json:"engine"`
	Model       string    `json:"model"`
	Report      Report    `json:"report"`
	CompletedAt time.Time `json:"completed_at"`
}

// Request is the immutable input of a single generation call.
type Request struct {
	Prompt string
	Image  []byte
	MIME   string
}

// BuildRequest pairs the prepared image with the fixed instruction prompt.
func BuildRequest(image []byte, mime string) Request {
	return Request{
		Prompt: Instruction,
		Image:  image,
		MIME:   mime,
	}
}
