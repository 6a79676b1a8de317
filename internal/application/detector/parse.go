package detector

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/bryanwahyu/vectora/internal/domain/detection"
)

const (
	// DefaultMessage is used when the answer carries a score but no message.
	DefaultMessage = "Analysis complete"
	snippetLen     = 100
)

var (
	objectRe  = regexp.MustCompile(`(?s)\{.*\}`)
	fieldRe   = regexp.MustCompile(`"ai_percent"\s*:\s*"?(-?\d+(?:\.\d+)?)`)
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%`)
)

type verdict struct {
	Percent any     `json:"ai_percent"`
	Message *string `json:"message"`
}

// Parse extracts a Result from a free-form model answer. The second return
// names the strategy that produced it, "neutral" when all of them failed.
func Parse(answer string) (detection.Result, string) {
	answer = strings.TrimSpace(answer)

	if r, ok := fromJSON(answer); ok {
		return r, "json"
	}

	if obj := objectRe.FindString(answer); obj != "" {
		if r, ok := fromJSON(obj); ok {
			return r, "json"
		}
		if repaired, err := jsonrepair.JSONRepair(obj); err == nil {
			if r, ok := fromJSON(repaired); ok {
				return r, "repaired"
			}
		}
	}

	if m := fieldRe.FindStringSubmatch(answer); m != nil {
		if p, ok := toPercent(m[1]); ok {
			return detection.Result{Percent: p, Message: DefaultMessage}, "field"
		}
	}

	if m := percentRe.FindStringSubmatch(answer); m != nil {
		p, _ := strconv.Atoi(m[1])
		return detection.Result{Percent: detection.Clamp(p), Message: snippet(answer)}, "percent"
	}

	return detection.Result{Percent: detection.NeutralPercent, Message: DefaultMessage}, "neutral"
}

func fromJSON(s string) (detection.Result, bool) {
	if !strings.HasPrefix(s, "{") {
		return detection.Result{}, false
	}
	var v verdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return detection.Result{}, false
	}

	r := detection.Result{Percent: detection.NeutralPercent, Message: DefaultMessage}
	if v.Percent != nil {
		p, ok := toPercent(v.Percent)
		if !ok {
			return detection.Result{}, false
		}
		r.Percent = p
	}
	if v.Message != nil && strings.TrimSpace(*v.Message) != "" {
		r.Message = *v.Message
	}
	return r, true
}

// toPercent accepts JSON numbers and numeric strings such as "75" or "75%".
func toPercent(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "%"), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return detection.Clamp(int(math.Round(math.Max(math.Min(f, 1000), -1000)))), true
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > snippetLen {
		return string(r[:snippetLen])
	}
	return s
}
