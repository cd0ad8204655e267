// Package outcome classifies raw execution signals into normalized outcome
// detections. Every detector is a pure function over its input: terminal
// exits, compiler output, free-text user feedback, and file-operation
// results all reduce to the same {outcome, confidence, signals, details}
// tuple, and Aggregate merges any mix of them by confidence weight.
package outcome

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Signal patterns ─────────────────────────────────────────

var testSummaryPattern = regexp.MustCompile(`(\d+)\s+tests?,\s+(\d+)\s+failures?`)

var errorMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\berror\b`),
	regexp.MustCompile(`(?i)\bfailed\b`),
	regexp.MustCompile(`(?i)\bexception\b`),
	regexp.MustCompile(`(?i)\bpanic:`),
	regexp.MustCompile(`(?i)compilation\s+error`),
	regexp.MustCompile(`(?i)undefined\s+(function|variable|reference)`),
	regexp.MustCompile(`(?i)syntax\s+error`),
}

var warningMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwarning\b`),
	regexp.MustCompile(`(?i)\bdeprecated\b`),
}

var compileSuccessPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)compiled\s+successfully`),
	regexp.MustCompile(`(?i)build\s+succeeded`),
	regexp.MustCompile(`(?i)compilation\s+finished`),
	regexp.MustCompile(`(?i)^ok\b`),
}

var positiveFeedbackCues = []string{
	"thanks", "thank you", "perfect", "great", "works", "awesome",
	"exactly", "nice", "correct", "that's it", "solved",
}

var negativeFeedbackCues = []string{
	"wrong", "broken", "doesn't work", "does not work", "not working",
	"error", "failed", "incorrect", "bad", "still failing", "no,",
}

// ── Detectors ───────────────────────────────────────────────

// DetectTerminal classifies a process exit. Exit code 0 biases toward
// success and nonzero toward failure, but a test-runner summary or error
// marker in the output overrides the exit-code bias and raises confidence.
func DetectTerminal(exitCode int, output string) models.Detection {
	d := models.Detection{
		Signal:  models.SignalTerminal,
		Details: map[string]interface{}{"exit_code": exitCode},
	}

	if exitCode == 0 {
		d.Outcome = models.OutcomeSuccess
		d.Confidence = 0.7
		d.Signals = append(d.Signals, "exit_code_zero")
	} else {
		d.Outcome = models.OutcomeFailure
		d.Confidence = 0.7
		d.Signals = append(d.Signals, "exit_code_nonzero")
	}

	if m := testSummaryPattern.FindStringSubmatch(output); m != nil {
		total, _ := strconv.Atoi(m[1])
		failures, _ := strconv.Atoi(m[2])
		d.Details["test_results"] = map[string]interface{}{
			"total":    total,
			"failures": failures,
		}
		d.Signals = append(d.Signals, "test_summary")
		if failures > 0 {
			d.Outcome = models.OutcomeFailure
			d.Confidence = 0.9
		} else {
			d.Outcome = models.OutcomeSuccess
			d.Confidence = 0.9
		}
		return d
	}

	if hasAnyMatch(errorMarkerPatterns, output) {
		d.Signals = append(d.Signals, "error_marker")
		if d.Outcome == models.OutcomeSuccess {
			// exit 0 but errors in output: treat as partial, not success
			d.Outcome = models.OutcomePartial
			d.Confidence = 0.6
		} else {
			d.Confidence = 0.85
		}
	}

	return d
}

// DetectCompile classifies compiler output. Success requires an explicit
// success marker; error markers force failure; warnings alone are partial.
func DetectCompile(output string) models.Detection {
	d := models.Detection{
		Signal:  models.SignalCompile,
		Details: map[string]interface{}{},
	}

	switch {
	case hasAnyMatch(errorMarkerPatterns, output):
		d.Outcome = models.OutcomeFailure
		d.Confidence = 0.9
		d.Signals = append(d.Signals, "compile_error")
	case hasAnyMatch(warningMarkerPatterns, output):
		d.Outcome = models.OutcomePartial
		d.Confidence = 0.7
		d.Signals = append(d.Signals, "compile_warning")
	case hasAnyMatch(compileSuccessPatterns, output):
		d.Outcome = models.OutcomeSuccess
		d.Confidence = 0.85
		d.Signals = append(d.Signals, "compile_success_marker")
	default:
		d.Outcome = models.OutcomeUnknown
		d.Confidence = 0.3
	}

	return d
}

// DetectUserFeedback classifies free-text user feedback by lexical cue
// matching. No cues at all yields unknown with low confidence.
func DetectUserFeedback(text string) models.Detection {
	d := models.Detection{
		Signal:  models.SignalUserFeedback,
		Details: map[string]interface{}{},
	}

	lower := strings.ToLower(text)
	positives := countCues(positiveFeedbackCues, lower)
	negatives := countCues(negativeFeedbackCues, lower)
	d.Details["positive_cues"] = positives
	d.Details["negative_cues"] = negatives

	switch {
	case negatives > 0 && negatives >= positives:
		d.Outcome = models.OutcomeFailure
		d.Confidence = 0.6 + 0.1*minFloat(float64(negatives), 3)
		d.Signals = append(d.Signals, "negative_feedback")
	case positives > 0:
		d.Outcome = models.OutcomeSuccess
		d.Confidence = 0.6 + 0.1*minFloat(float64(positives), 3)
		d.Signals = append(d.Signals, "positive_feedback")
	default:
		d.Outcome = models.OutcomeUnknown
		d.Confidence = 0.3
	}

	d.Confidence = models.Clamp01(d.Confidence)
	return d
}

// DetectFileOperation classifies a file operation result map. Presence of
// an "error" key is failure; anything else is success.
func DetectFileOperation(kind string, result map[string]interface{}) models.Detection {
	d := models.Detection{
		Signal:  models.SignalFileOperation,
		Details: map[string]interface{}{"operation": kind},
	}

	if errVal, ok := result["error"]; ok && errVal != nil {
		d.Outcome = models.OutcomeFailure
		d.Confidence = 0.9
		d.Signals = append(d.Signals, "file_operation_error")
		d.Details["error"] = errVal
		return d
	}

	d.Outcome = models.OutcomeSuccess
	d.Confidence = 0.8
	d.Signals = append(d.Signals, "file_operation_ok")
	return d
}

// Aggregate merges detections weighted by each input's own confidence.
// Failure dominates: a high-confidence failure pulls the aggregate to
// partial or failure even when success signals outnumber it.
func Aggregate(detections []models.Detection) models.Detection {
	agg := models.Detection{
		Signal:  models.SignalAggregate,
		Details: map[string]interface{}{"inputs": len(detections)},
	}

	if len(detections) == 0 {
		agg.Outcome = models.OutcomeUnknown
		agg.Confidence = 0.0
		return agg
	}

	var (
		successWeight  float64
		failureWeight  float64
		partialWeight  float64
		totalWeight    float64
		maxFailureConf float64
	)
	for _, d := range detections {
		w := models.Clamp01(d.Confidence)
		totalWeight += w
		agg.Signals = append(agg.Signals, d.Signals...)
		switch d.Outcome {
		case models.OutcomeSuccess:
			successWeight += w
		case models.OutcomeFailure:
			failureWeight += w
			if w > maxFailureConf {
				maxFailureConf = w
			}
		case models.OutcomePartial:
			partialWeight += w
		}
	}

	if totalWeight == 0 {
		agg.Outcome = models.OutcomeUnknown
		agg.Confidence = 0.0
		return agg
	}

	switch {
	case failureWeight >= successWeight && failureWeight > 0:
		agg.Outcome = models.OutcomeFailure
		agg.Confidence = failureWeight / totalWeight
	case maxFailureConf >= 0.7:
		// strong dissenting failure among successes
		agg.Outcome = models.OutcomePartial
		agg.Confidence = maxFailureConf
	case successWeight > 0 && failureWeight == 0 && partialWeight == 0:
		agg.Outcome = models.OutcomeSuccess
		agg.Confidence = successWeight / totalWeight
	case successWeight+partialWeight > 0:
		agg.Outcome = models.OutcomePartial
		agg.Confidence = (successWeight + partialWeight) / totalWeight
	default:
		agg.Outcome = models.OutcomeUnknown
		agg.Confidence = 0.0
	}

	agg.Confidence = models.Clamp01(agg.Confidence)
	return agg
}

// ── Helpers ─────────────────────────────────────────────────

func hasAnyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func countCues(cues []string, lowerText string) int {
	n := 0
	for _, cue := range cues {
		if strings.Contains(lowerText, cue) {
			n++
		}
	}
	return n
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
