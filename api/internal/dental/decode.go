package dental

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Decoder turns a complete model response into a Report.
// The zero value is ready to use.
type Decoder struct {
	Logger *zap.Logger
	// OnFallback, if set, is called whenever the greedy extraction had to be used.
	OnFallback func()
}

// Decode is Decoder{}.Decode.
func Decode(raw string) (Report, error) {
	return Decoder{}.Decode(raw)
}

// Decode validates raw in order: sentinel, JSON span, strict schema.
// It never returns a partially filled Report.
func (d Decoder) Decode(raw string) (Report, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.Contains(raw, NoTeethSentinel) {
		return Report{}, &DecodeError{Kind: NoSubjectDetected}
	}

	span, how := ExtractJSON(raw)
	switch how {
	case ExtractNone:
		return Report{}, &DecodeError{Kind: NoJSONFound}
	case ExtractGreedy:
		logger.Warn("json_extraction_fallback",
			zap.Int("response_len", len(raw)),
			zap.Int("span_len", len(span)),
		)
		if d.OnFallback != nil {
			d.OnFallback()
		}
	}

	return decodeSpan(span)
}

func decodeSpan(span string) (Report, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return Report{}, mismatch("", "invalid JSON: "+err.Error(), err)
	}

	var (
		r   Report
		err error
	)
	if r.CavityRisk, err = enumField(fields, "cavity_risk", CavityRisks); err != nil {
		return Report{}, err
	}
	if r.PlaqueLevel, err = enumField(fields, "plaque_level", PlaqueLevels); err != nil {
		return Report{}, err
	}
	if r.Alignment, err = enumField(fields, "alignment", Alignments); err != nil {
		return Report{}, err
	}
	if r.ToothColor, err = enumField(fields, "tooth_color", ToothColors); err != nil {
		return Report{}, err
	}
	if r.GumHealth, err = enumField(fields, "gum_health", GumHealths); err != nil {
		return Report{}, err
	}
	if r.OverallScore, err = scoreField(fields, "overall_score"); err != nil {
		return Report{}, err
	}
	if r.CareTips, err = tipsField(fields, "care_tips"); err != nil {
		return Report{}, err
	}
	return r, nil
}

var nullLiteral = []byte("null")

func field(fields map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), nullLiteral) {
		return nil, mismatch(name, "missing", nil)
	}
	return raw, nil
}

func enumField[T ~string](fields map[string]json.RawMessage, name string, allowed []T) (T, error) {
	var zero T
	raw, err := field(fields, name)
	if err != nil {
		return zero, err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return zero, mismatch(name, "expected string", err)
	}
	v := T(s)
	if !slices.Contains(allowed, v) {
		return zero, mismatch(name, fmt.Sprintf("unknown value %q", s), nil)
	}
	return v, nil
}

func scoreField(fields map[string]json.RawMessage, name string) (int, error) {
	raw, err := field(fields, name)
	if err != nil {
		return 0, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, mismatch(name, "expected integer", err)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, mismatch(name, "expected integer", nil)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, mismatch(name, fmt.Sprintf("not an integer: %s", n), err)
	}
	if i < MinScore || i > MaxScore {
		return 0, mismatch(name, fmt.Sprintf("out of range [%d,%d]: %d", MinScore, MaxScore, i), nil)
	}
	return int(i), nil
}

func tipsField(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, err := field(fields, name)
	if err != nil {
		return nil, err
	}
	var items []*string
	if err := json.Unmarshal(raw, &items); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return nil, mismatch(name, "expected list of strings", err)
		}
		return nil, mismatch(name, "invalid list", err)
	}
	if len(items) != CareTipCount {
		return nil, mismatch(name, fmt.Sprintf("expected %d tips, got %d", CareTipCount, len(items)), nil)
	}
	tips := make([]string, len(items))
	for i, s := range items {
		if s == nil {
			return nil, mismatch(name, fmt.Sprintf("tip %d is null", i), nil)
		}
		tips[i] = *s
	}
	return tips, nil
}
