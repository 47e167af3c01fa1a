// Package skills scores how well a candidate's declared skills cover a job
// posting's parsed requirements. Matching is deliberately lexical: it has to
// be explainable to the user ("you are missing X"), so no embeddings here.
package skills

import (
	"math"
	"strings"
)

// matches reports whether a requirement and a skill refer to the same thing:
// case-insensitive substring containment in either direction, so "Postgres"
// matches "PostgreSQL" and "AWS Lambda" matches "Lambda".
func matches(requirement, skill string) bool {
	r := strings.ToLower(strings.TrimSpace(requirement))
	s := strings.ToLower(strings.TrimSpace(skill))
	if r == "" || s == "" {
		return false
	}
	return strings.Contains(r, s) || strings.Contains(s, r)
}

// Score returns the 0-10 coverage of required skills by candidate skills:
// round((matched/required)*10). No requirements scores 0, not 10; an empty
// posting is a parsing failure upstream, not a perfect match.
func Score(required, candidate []string) int {
	total := 0
	matched := 0
	for _, req := range required {
		if strings.TrimSpace(req) == "" {
			continue
		}
		total++
		for _, skill := range candidate {
			if matches(req, skill) {
				matched++
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(total) * 10))
}

// Missing returns the requirements no candidate skill covers, preserving the
// posting's original casing and order, deduplicated case-insensitively.
func Missing(required, candidate []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, req := range required {
		if strings.TrimSpace(req) == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(req))
		if seen[key] {
			continue
		}
		seen[key] = true

		covered := false
		for _, skill := range candidate {
			if matches(req, skill) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, req)
		}
	}
	return missing
}
