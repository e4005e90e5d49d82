package taste

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

func TestProject(t *testing.T) {
	p := NewProjector(testBasis(t), DefaultTendencyThreshold)

	tests := []struct {
		name      string
		embedding []float64
		want      []float64
		tendency  []string
	}{
		{"aligned", []float64{2, 0}, []float64{1, 0}, []string{"Light", TendencyNeutral}},
		{"opposite", []float64{0, -5}, []float64{0, -1}, []string{TendencyNeutral, "Calm"}},
		{"diagonal", []float64{1, -1}, []float64{0.7071067811865475, -0.7071067811865475}, []string{"Light", "Calm"}},
		{"weak", []float64{0.1, 1}, []float64{0.09950371902099892, 0.9950371902099892}, []string{TendencyNeutral, "Intense"}},
		{"zero", []float64{0, 0}, []float64{0, 0}, []string{TendencyNeutral, TendencyNeutral}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, scores, err := p.Project(tt.embedding)
			if err != nil {
				t.Fatalf("Project: %v", err)
			}
			for i := range tt.want {
				if !approx(vec[i], tt.want[i]) {
					t.Errorf("score[%d] = %v, want %v", i, vec[i], tt.want[i])
				}
				if vec[i] < -1 || vec[i] > 1 {
					t.Errorf("score[%d] = %v out of bounds", i, vec[i])
				}
				if scores[i].Tendency != tt.tendency[i] {
					t.Errorf("tendency[%d] = %q, want %q", i, scores[i].Tendency, tt.tendency[i])
				}
			}
		})
	}
}

func TestProjectDeterministic(t *testing.T) {
	p := NewProjector(testBasis(t), DefaultTendencyThreshold)
	in := []float64{0.3, -0.8}

	a, _, _ := p.Project(in)
	b, _, _ := p.Project(in)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("projection is not deterministic: %v vs %v", a, b)
		}
	}
}

func TestProjectRejectsWrongDimension(t *testing.T) {
	p := NewProjector(testBasis(t), DefaultTendencyThreshold)

	_, _, err := p.Project([]float64{1, 2, 3})
	if !errors.Is(err, e.ErrInvalidQuery) {
		t.Fatalf("got %v, want ErrInvalidQuery", err)
	}
}

func TestBreakdownPadsShortVector(t *testing.T) {
	p := NewProjector(testBasis(t), 0.5)

	scores := p.Breakdown([]float64{0.6})
	if len(scores) != 2 {
		t.Fatalf("got %d scores", len(scores))
	}
	if scores[0].Tendency != "Light" || scores[1].Score != 0 || scores[1].Tendency != TendencyNeutral {
		t.Errorf("unexpected breakdown: %+v", scores)
	}
}
