package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	topProvinceCount = 10
	topRegionCount   = 6
)

type DetectionStats struct {
	TotalDetections   int     `json:"total_detections"`
	AutoDetections    int     `json:"auto_detections"`
	ManualDetections  int     `json:"manual_detections"`
	AvgConfidenceAPI  float64 `json:"avg_confidence_api"`
	AvgConfidenceYOLO float64 `json:"avg_confidence_yolo"`
}

// RankedCount is serialised as a two element array, ["name", count], which
// is what the dashboard charts consume.
type RankedCount struct {
	Name  string
	Count int
}

func (r RankedCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Name, r.Count})
}

func (r *RankedCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranked count: want [name, count], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Count)
}

type ProvinceStats struct {
	ProvinceStats     map[string]int `json:"province_stats"`
	RegionStats       map[string]int `json:"region_stats"`
	TotalWithProvince int            `json:"total_with_province"`
	TotalAnalyzed     int            `json:"total_analyzed"`
	SuccessRate       float64        `json:"success_rate"`
	TopProvinces      []RankedCount  `json:"top_provinces"`
	TopRegions        []RankedCount  `json:"top_regions"`
}

// ComputeStats aggregates detection counts and mean confidences. Any mode
// other than auto counts as manual; the YOLO mean only covers records that
// carry a YOLO confidence.
func ComputeStats(records []DetectionRecord) DetectionStats {
	var s DetectionStats
	var apiSum, yoloSum float64
	var yoloCount int
	for _, r := range records {
		s.TotalDetections++
		if r.DetectionMode == ModeAuto {
			s.AutoDetections++
		} else {
			s.ManualDetections++
		}
		apiSum += r.ConfidenceAPI
		if r.ConfidenceYOLO.Valid {
			yoloSum += r.ConfidenceYOLO.Float64
			yoloCount++
		}
	}
	if s.TotalDetections > 0 {
		s.AvgConfidenceAPI = apiSum / float64(s.TotalDetections)
	}
	if yoloCount > 0 {
		s.AvgConfidenceYOLO = yoloSum / float64(yoloCount)
	}
	return s
}

// ComputeProvinceStats counts detections per province and region and ranks the most frequent.
func ComputeProvinceStats(records []DetectionRecord) ProvinceStats {
	s := ProvinceStats{
		ProvinceStats: map[string]int{},
		RegionStats:   map[string]int{},
		TopProvinces:  []RankedCount{},
		TopRegions:    []RankedCount{},
	}
	for _, r := range records {
		if r.ProvinceAnalysisSuccess {
			s.TotalAnalyzed++
		}
		if r.Province.Valid && r.Province.String != "" {
			s.ProvinceStats[r.Province.String]++
			s.TotalWithProvince++
		}
		if r.Region != "" {
			s.RegionStats[r.Region]++
		}
	}
	if len(records) > 0 {
		s.SuccessRate = float64(s.TotalAnalyzed) / float64(len(records))
	}
	s.TopProvinces = topN(s.ProvinceStats, topProvinceCount)
	s.TopRegions = topN(s.RegionStats, topRegionCount)
	return s
}

// topN orders by count descending, then name ascending.
func topN(counts map[string]int, n int) []RankedCount {
	ranked := make([]RankedCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, RankedCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
