package scoring

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

type mapCatalog map[string][2]string // name -> {description, period}

func (m mapCatalog) IsValidName(name string) bool     { _, ok := m[name]; return ok }
func (m mapCatalog) DescriptionOf(name string) string { return m[name][0] }
func (m mapCatalog) PeriodOf(name string) string      { return m[name][1] }

var industries = mapCatalog{
	"반도체":    {"메모리 및 비메모리 반도체 제조", ""},
	"화학":     {"석유화학 및 정밀화학", ""},
	"IT 서비스": {"소프트웨어 및 플랫폼", ""},
	"정유":     {"원유 정제", ""},
}

func TestSimilarityFromDistance(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0.2, 80.0},
		{0, 100},
		{1, 0},
		{0.1234, 87.7},
		{-0.5, 100},
		{1.7, 0},
	}
	for _, tt := range tests {
		if got := SimilarityFromDistance(tt.distance); got != tt.want {
			t.Errorf("SimilarityFromDistance(%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}

func TestBlend_MergesBothSources(t *testing.T) {
	b := Blender{Catalog: industries, TopN: 3}
	hits := []VectorHit{{Name: "반도체", Similarity: SimilarityFromDistance(0.2), Description: "벡터 설명"}}
	picks := []AIPick{{Name: "반도체", Score: 9, Reason: "수출 규제 직접 영향"}}

	got := b.Blend(hits, picks)
	want := []model.Candidate{{
		Name:        "반도체",
		FinalScore:  8.7,
		VectorScore: 80.0,
		AIScore:     9,
		AIReason:    "수출 규제 직접 영향",
		Description: "벡터 설명",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Blend() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlend_AIOnlyCandidateUsesCatalog(t *testing.T) {
	b := Blender{Catalog: industries}
	got := b.Blend(nil, []AIPick{{Name: "화학", Score: 6, Reason: "원가 상승"}})
	want := []model.Candidate{{
		Name:        "화학",
		FinalScore:  4.2,
		AIScore:     6,
		AIReason:    "원가 상승",
		Description: "석유화학 및 정밀화학",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Blend() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlend_DropsUnknownAIName(t *testing.T) {
	b := Blender{Catalog: industries}
	got := b.Blend(nil, []AIPick{{Name: "우주항공", Score: 10}, {Name: "정유", Score: 5}})
	if len(got) != 1 || got[0].Name != "정유" {
		t.Fatalf("Blend() = %+v, want only 정유", got)
	}
}

func TestBlend_EmptyInputs(t *testing.T) {
	got := Blender{Catalog: industries}.Blend(nil, nil)
	if len(got) != 0 {
		t.Errorf("Blend(nil, nil) = %+v, want empty", got)
	}
	if c := Confidence(got, got); c != 0 {
		t.Errorf("Confidence(empty) = %v, want 0", c)
	}
}

func TestBlend_VectorDescriptionWins(t *testing.T) {
	b := Blender{Catalog: industries}
	got := b.Blend(
		[]VectorHit{{Name: "정유", Similarity: 50, Description: "from vector"}},
		[]AIPick{{Name: "정유", Score: 4}},
	)
	if got[0].Description != "from vector" {
		t.Errorf("description = %q, want vector description", got[0].Description)
	}
}

func TestBlend_TopNAndOrdering(t *testing.T) {
	b := Blender{Catalog: industries, TopN: 3}
	hits := []VectorHit{
		{Name: "정유", Similarity: 90},
		{Name: "반도체", Similarity: 60},
		{Name: "화학", Similarity: 60},
	}
	picks := []AIPick{{Name: "IT 서비스", Score: 8}, {Name: "반도체", Score: 2}}

	got := b.Blend(hits, picks)
	var names []string
	for _, c := range got {
		names = append(names, c.Name)
	}
	// IT 서비스 5.6, 정유 2.7, 반도체 3.2, 화학 1.8
	want := []string{"IT 서비스", "반도체", "정유"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBlend_TiesKeepInsertionOrder(t *testing.T) {
	b := Blender{Catalog: industries}
	got := b.Blend([]VectorHit{{Name: "화학", Similarity: 50}, {Name: "정유", Similarity: 50}}, nil)
	if got[0].Name != "화학" || got[1].Name != "정유" {
		t.Errorf("tie order = %s, %s; want 화학, 정유", got[0].Name, got[1].Name)
	}
}

func TestBlend_PastIssuePeriods(t *testing.T) {
	past := mapCatalog{
		"일본 수출 규제": {"반도체 소재 수출 규제", "2019-07-01 ~ 2020-01-31"},
		"솔레이마니":    {"중동 긴장", ""},
	}
	b := Blender{Catalog: past, Periods: true}
	got := b.Blend(
		[]VectorHit{{Name: "솔레이마니", Similarity: 70}},
		[]AIPick{{Name: "일본 수출 규제", Score: 8}},
	)
	periods := map[string]string{}
	for _, c := range got {
		periods[c.Name] = c.Period
	}
	want := map[string]string{"일본 수출 규제": "2019-07-01 ~ 2020-01-31", "솔레이마니": model.NoPeriod}
	if diff := cmp.Diff(want, periods); diff != "" {
		t.Errorf("periods mismatch (-want +got):\n%s", diff)
	}
}

func TestBlend_Properties(t *testing.T) {
	names := []string{"반도체", "화학", "IT 서비스", "정유", "없는산업"}
	r := rand.New(rand.NewSource(7))
	b := Blender{Catalog: industries, TopN: 3}

	for n := 0; n < 500; n++ {
		var hits []VectorHit
		for i := r.Intn(5); i > 0; i-- {
			hits = append(hits, VectorHit{Name: names[r.Intn(4)], Similarity: SimilarityFromDistance(r.Float64())})
		}
		var picks []AIPick
		for i := r.Intn(6); i > 0; i-- {
			picks = append(picks, AIPick{Name: names[r.Intn(len(names))], Score: float64(r.Intn(11))})
		}

		got := b.Blend(hits, picks)
		if len(got) > 3 {
			t.Fatalf("len = %d, want <= 3", len(got))
		}
		seen := map[string]bool{}
		for i, c := range got {
			if c.FinalScore < 0 || c.FinalScore > 10 {
				t.Fatalf("final score %v out of range", c.FinalScore)
			}
			if i > 0 && got[i-1].FinalScore < c.FinalScore {
				t.Fatalf("not sorted: %+v", got)
			}
			if c.Name == "없는산업" {
				t.Fatalf("unknown name leaked: %+v", got)
			}
			if seen[c.Name] {
				t.Fatalf("duplicate name %q", c.Name)
			}
			seen[c.Name] = true
		}

		first, _ := json.Marshal(got)
		second, _ := json.Marshal(b.Blend(hits, picks))
		if string(first) != string(second) {
			t.Fatalf("blend not deterministic:\n%s\n%s", first, second)
		}
	}
}
