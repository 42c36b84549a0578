package security

import (
	"fmt"
	"regexp"
	"strings"
)

// attackPatterns are the known-bad request signatures. Each match adds
// 50 to the threat score.
var attackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(union|select|insert|update|delete|drop|create|alter)\s+`),
	regexp.MustCompile(`<script[^>]*>.*?</script>`),
	regexp.MustCompile(`\.\./|\.\.\\`),
	regexp.MustCompile(`(?i)(exec|eval|system|cmd)`),
	regexp.MustCompile(`(?i)(password|passwd|pwd).*[=:]`),
}

// suspiciousSequences add 30 each: null bytes and template/PHP markers
// that never belong in legitimate payloads.
var suspiciousSequences = []string{"%00", "\x00", "<?php", "<%", "{$"}

const maxPayloadBytes = 10000

type Threat struct {
	Type     string `json:"type"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

type Analysis struct {
	IsThreat    bool     `json:"is_threat"`
	ThreatScore int      `json:"threat_score"`
	Threats     []Threat `json:"threats"`
	RiskLevel   string   `json:"risk_level"`
}

// Details summarizes the detected threats for incident records.
func (a Analysis) Details() string {
	if len(a.Threats) == 0 {
		return "no threats detected"
	}

	parts := make([]string, 0, len(a.Threats))
	for _, threat := range a.Threats {
		parts = append(parts, threat.Type)
	}
	return fmt.Sprintf("score %d: %s", a.ThreatScore, strings.Join(parts, ", "))
}

// AnalyzePayload scores a raw request payload. Anything over 30 is a
// threat; over 50 is high risk, over 20 medium.
func AnalyzePayload(payload string) Analysis {
	var threats []Threat
	score := 0

	for _, pattern := range attackPatterns {
		if pattern.MatchString(payload) {
			threats = append(threats, Threat{
				Type:     "pattern_match",
				Detail:   pattern.String(),
				Severity: "high",
			})
			score += 50
		}
	}

	if len(payload) > maxPayloadBytes {
		threats = append(threats, Threat{
			Type:     "large_payload",
			Detail:   "oversized request body",
			Severity: "medium",
		})
		score += 20
	}

	for _, seq := range suspiciousSequences {
		if strings.Contains(payload, seq) {
			threats = append(threats, Threat{
				Type:     "suspicious_characters",
				Detail:   seq,
				Severity: "high",
			})
			score += 30
		}
	}

	risk := "low"
	switch {
	case score > 50:
		risk = "high"
	case score > 20:
		risk = "medium"
	}

	return Analysis{
		IsThreat:    score > 30,
		ThreatScore: score,
		Threats:     threats,
		RiskLevel:   risk,
	}
}
