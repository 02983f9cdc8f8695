package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func record(mode DetectionMode, api float64, yolo null.Float, prov, region string, ok bool) DetectionRecord {
	r := DetectionRecord{
		LicensePlate:            "กก 1234",
		ConfidenceAPI:           api,
		ConfidenceYOLO:          yolo,
		DetectionMode:           mode,
		Region:                  region,
		ProvinceAnalysisSuccess: ok,
	}
	if prov != "" {
		r.Province = null.StringFrom(prov)
	}
	return r
}

func TestComputeStats(t *testing.T) {
	records := []DetectionRecord{
		record(ModeAuto, 0.9, null.FloatFrom(0.8), "", "", false),
		record(ModeAuto, 0.7, null.FloatFrom(0.6), "", "", false),
		record(ModeManual, 0.5, null.Float{}, "", "", false),
		record("", 0.3, null.Float{}, "", "", false),
	}
	s := ComputeStats(records)
	assert.Equal(t, 4, s.TotalDetections)
	assert.Equal(t, 2, s.AutoDetections)
	assert.Equal(t, 2, s.ManualDetections)
	assert.InDelta(t, 0.6, s.AvgConfidenceAPI, 1e-9)
	assert.InDelta(t, 0.7, s.AvgConfidenceYOLO, 1e-9)
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats(nil)
	assert.Equal(t, DetectionStats{}, s)
}

func TestComputeProvinceStats(t *testing.T) {
	records := []DetectionRecord{
		record(ModeManual, 1, null.Float{}, "กรุงเทพมหานคร", "กรุงเทพและปริมณฑล", true),
		record(ModeManual, 1, null.Float{}, "กรุงเทพมหานคร", "กรุงเทพและปริมณฑล", true),
		record(ModeManual, 1, null.Float{}, "เชียงใหม่", "ภาคเหนือ", true),
		record(ModeManual, 1, null.Float{}, "", "ไม่ระบุ", false),
	}
	s := ComputeProvinceStats(records)

	assert.Equal(t, map[string]int{"กรุงเทพมหานคร": 2, "เชียงใหม่": 1}, s.ProvinceStats)
	assert.Equal(t, map[string]int{"กรุงเทพและปริมณฑล": 2, "ภาคเหนือ": 1, "ไม่ระบุ": 1}, s.RegionStats)
	assert.Equal(t, 3, s.TotalWithProvince)
	assert.Equal(t, 3, s.TotalAnalyzed)
	assert.InDelta(t, 0.75, s.SuccessRate, 1e-9)
	require.Len(t, s.TopProvinces, 2)
	assert.Equal(t, RankedCount{"กรุงเทพมหานคร", 2}, s.TopProvinces[0])
	require.Len(t, s.TopRegions, 3)
	assert.Equal(t, "กรุงเทพและปริมณฑล", s.TopRegions[0].Name)
}

func TestTopNLimitsAndBreaksTies(t *testing.T) {
	counts := map[string]int{"b": 1, "a": 1, "c": 5, "d": 2}
	top := topN(counts, 3)
	assert.Equal(t, []RankedCount{{"c", 5}, {"d", 2}, {"a", 1}}, top)
}

func TestRankedCountJSON(t *testing.T) {
	data, err := json.Marshal([]RankedCount{{"ภูเก็ต", 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["ภูเก็ต",3]]`, string(data))

	var back []RankedCount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []RankedCount{{"ภูเก็ต", 3}}, back)

	var bad RankedCount
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &bad))
}

func TestDetectionFilterMatches(t *testing.T) {
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r := DetectionRecord{LicensePlate: "ABC 123 Bangkok", Timestamp: ts}

	before := ts.Add(-time.Hour)
	after := ts.Add(time.Hour)

	assert.True(t, DetectionFilter{}.Matches(r))
	assert.True(t, DetectionFilter{LicensePlate: "bangkok"}.Matches(r))
	assert.False(t, DetectionFilter{LicensePlate: "chiang"}.Matches(r))
	assert.True(t, DetectionFilter{From: &before, To: &after}.Matches(r))
	assert.True(t, DetectionFilter{From: &ts, To: &ts}.Matches(r))
	assert.False(t, DetectionFilter{From: &after}.Matches(r))
	assert.False(t, DetectionFilter{To: &before}.Matches(r))
}

func TestDetectionViewFormatsTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 10, 12, 30, 45, 0, time.Local)
	v := DetectionRecord{ID: "x", Timestamp: ts}.View()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "2025-03-10 12:30:45", out["timestamp"])
	assert.Equal(t, "x", out["id"])
}
