package dental

// Severity buckets a field value for display: good, fair or bad.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityGood
	SeverityFair
	SeverityBad
)

func (c CavityRisk) Severity() Severity {
	switch c {
	case CavityLowRisk:
		return SeverityGood
	case CavityModerateRisk:
		return SeverityFair
	case CavityHighRisk:
		return SeverityBad
	}
	return SeverityUnknown
}

func (p PlaqueLevel) Severity() Severity {
	switch p {
	case PlaqueLow:
		return SeverityGood
	case PlaqueModerate:
		return SeverityFair
	case PlaqueHigh:
		return SeverityBad
	}
	return SeverityUnknown
}

func (a Alignment) Severity() Severity {
	switch a {
	case AlignmentGood:
		return SeverityGood
	case AlignmentModerate:
		return SeverityFair
	case AlignmentPoor:
		return SeverityBad
	}
	return SeverityUnknown
}

func (t ToothColor) Severity() Severity {
	switch t {
	case ToothWhite:
		return SeverityGood
	case ToothSlightlyYellow:
		return SeverityFair
	case ToothYellow:
		return SeverityBad
	}
	return SeverityUnknown
}

func (g GumHealth) Severity() Severity {
	switch g {
	case GumHealthy:
		return SeverityGood
	case GumSlightlyInflamed:
		return SeverityFair
	case GumInflamed:
		return SeverityBad
	}
	return SeverityUnknown
}
