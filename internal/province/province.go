// Package province derives the registration province and region of a Thai
// license plate, either from the recognizer's own province field or from
// the plate text.
package province

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Confidence levels reported by the matchers.
const (
	ConfidenceExact        = 1.0
	ConfidenceAbbreviation = 0.9
	ConfidencePartial      = 0.8
)

// Analysis is the result of analysing plate text.
type Analysis struct {
	LicensePlate       string  `json:"license_plate"`
	Province           string  `json:"province,omitempty"`
	ProvinceConfidence float64 `json:"province_confidence"`
	Region             string  `json:"region"`
	AnalysisSuccess    bool    `json:"analysis_success"`
}

// ExtractFromPlate looks for a province name, abbreviation or romanisation
// inside plate text.
func ExtractFromPlate(plate string) (string, float64, bool) {
	text := strings.ToLower(strings.TrimSpace(plate))
	if text == "" {
		return "", 0, false
	}

	for _, p := range provinces {
		for _, v := range p.variations {
			if strings.Contains(text, strings.ToLower(v)) {
				return p.name, ConfidenceExact, true
			}
		}
	}

	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?()[]{}")
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		for _, p := range provinces {
			for _, v := range p.variations {
				v = strings.ToLower(v)
				if strings.Contains(v, word) || strings.Contains(word, v) {
					return p.name, ConfidencePartial, true
				}
			}
		}
	}

	for _, a := range abbreviations {
		for _, v := range a.variations {
			if strings.Contains(text, strings.ToLower(v)) {
				return a.name, ConfidenceAbbreviation, true
			}
		}
	}

	return "", 0, false
}

// RegionOf returns the region of a province name, or Unknown.
func RegionOf(province string) string {
	for _, r := range regions {
		for _, p := range r.provinces {
			if p == province {
				return r.name
			}
		}
	}
	return Unknown
}

// Analyze extracts the province from plate and fills in its region.
func Analyze(plate string) Analysis {
	a := Analysis{LicensePlate: plate, Region: Unknown}
	name, conf, ok := ExtractFromPlate(plate)
	if !ok {
		return a
	}
	a.Province = name
	a.ProvinceConfidence = conf
	a.Region = RegionOf(name)
	a.AnalysisSuccess = true
	return a
}

var (
	thaiNamePattern    = regexp.MustCompile(`\(([^)]+)\)`)
	englishNamePattern = regexp.MustCompile(`:([^(]+)`)
)

// FromRawResponse reads the "province" field of a raw recognizer response,
// formatted like "th-10:Bangkok (กรุงเทพมหานคร)".
func FromRawResponse(raw map[string]any) (string, float64, string, bool) {
	if len(raw) == 0 {
		return "", 0, Unknown, false
	}
	field, _ := raw["province"].(string)
	if field == "" {
		return "", 0, Unknown, false
	}

	if m := thaiNamePattern.FindStringSubmatch(field); m != nil {
		thai := strings.TrimSpace(m[1])
		if known, ok := apiThaiNames[thai]; ok {
			return known.province, ConfidenceExact, known.region, true
		}
		return thai, ConfidencePartial, Unknown, true
	}

	if m := englishNamePattern.FindStringSubmatch(field); m != nil {
		english := strings.TrimSpace(m[1])
		if known, ok := apiEnglishNames[english]; ok {
			return known.province, ConfidenceAbbreviation, known.region, true
		}
	}

	return "", 0, Unknown, false
}

// Resolve prefers the recognizer's province field and falls back to the
// plate text.
func Resolve(plate string, raw map[string]any) Analysis {
	if name, conf, region, ok := FromRawResponse(raw); ok {
		return Analysis{
			LicensePlate:       plate,
			Province:           name,
			ProvinceConfidence: conf,
			Region:             region,
			AnalysisSuccess:    true,
		}
	}
	return Analyze(plate)
}
