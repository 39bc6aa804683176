package variants

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"imageoptimize/models"
)

func TestParseStringRetinaSizes(t *testing.T) {
	raw := `[{"width":320,"aspectRatioX":4,"aspectRatioY":3,"retinaSizes":["1","2"],"quality":60,"format":"jpg"}]`
	specs, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []models.VariantSpec{
		{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1, 2}, Quality: 60, Format: "jpg"},
	}
	if diff := cmp.Diff(want, specs); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaultsRetinaSizes(t *testing.T) {
	raw := `[{"width":"750","aspectRatioX":4,"aspectRatioY":3,"quality":60,"format":""},
	         {"width":320,"aspectRatioX":4,"aspectRatioY":3,"retinaSizes":[],"quality":60,"format":null}]`
	specs, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for i, s := range specs {
		if diff := cmp.Diff([]float64{1}, s.RetinaSizes); diff != "" {
			t.Errorf("spec %d retina sizes (-want +got):\n%s", i, diff)
		}
		if s.Format != "" {
			t.Errorf("spec %d: expected unspecified format, got %q", i, s.Format)
		}
	}
	if specs[0].Width != 750 {
		t.Errorf("expected width 750 from numeric string, got %d", specs[0].Width)
	}
}

func TestParseRejectsNonSequences(t *testing.T) {
	cases := map[string]string{
		"object":         `{"width":320}`,
		"scalar entries": `[1, 2, 3]`,
		"string":         `"variants"`,
		"bad number":     `[{"width":"wide","aspectRatioX":4,"aspectRatioY":3,"quality":60}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			if !errors.Is(err, models.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestParseAnyRejectsMap(t *testing.T) {
	_, err := ParseAny(map[string]any{"width": 320})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseAnyDecodedList(t *testing.T) {
	decoded := []any{
		map[string]any{"width": 320.0, "aspectRatioX": 4.0, "aspectRatioY": 3.0, "retinaSizes": []any{"1", 2.0}, "quality": 60.0, "format": "png"},
	}
	specs, err := ParseAny(decoded)
	if err != nil {
		t.Fatalf("ParseAny failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Format != "png" || len(specs[0].RetinaSizes) != 2 {
		t.Errorf("unexpected specs: %+v", specs)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	specs := []models.VariantSpec{
		{Width: 0, AspectRatioX: 16, AspectRatioY: 0, RetinaSizes: []float64{1}, Quality: 82, Format: "jpg"},
		{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{-1}, Quality: 101, Format: "exr"},
	}
	err := Validate(specs)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Problems) != 5 {
		t.Errorf("expected 5 problems, got %d: %v", len(cfgErr.Problems), cfgErr)
	}
	if !errors.Is(err, models.ErrConfiguration) {
		t.Error("ConfigError should unwrap to ErrConfiguration")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default variants should validate: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Default()
	c := Clone(orig)
	c[0].RetinaSizes[0] = 3
	c[1].Width = 1
	if orig[0].RetinaSizes[0] != 1 || orig[1].Width != 970 {
		t.Error("Clone should not share state with the original list")
	}
}

func TestPlanJobCount(t *testing.T) {
	specs := []models.VariantSpec{
		{Width: 1170, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1, 2, 3}, Quality: 82},
		{Width: 970, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1}, Quality: 82},
		{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1, 1.5}, Quality: 60},
	}
	jobs := Plan(specs)
	if len(jobs) != 6 {
		t.Fatalf("expected 6 jobs, got %d", len(jobs))
	}
}

func TestPlanDimensions(t *testing.T) {
	tests := []struct {
		name       string
		spec       models.VariantSpec
		wantWidth  int
		wantHeight int
	}{
		// 970 * 9 / 16 = 545.625
		{"16:9", models.VariantSpec{Width: 970, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1}, Quality: 82}, 970, 545},
		{"4:3", models.VariantSpec{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1}, Quality: 60}, 320, 240},
		{"retina 2x", models.VariantSpec{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{2}, Quality: 60}, 640, 480},
		{"rounded 1.5x", models.VariantSpec{Width: 333, AspectRatioX: 1, AspectRatioY: 1, RetinaSizes: []float64{1.5}, Quality: 60}, 500, 500},
		{"portrait", models.VariantSpec{Width: 300, AspectRatioX: 2, AspectRatioY: 3, RetinaSizes: []float64{1}, Quality: 60}, 300, 450},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := Plan([]models.VariantSpec{tt.spec})
			if len(jobs) != 1 {
				t.Fatalf("expected 1 job, got %d", len(jobs))
			}
			if jobs[0].Width != tt.wantWidth || jobs[0].Height != tt.wantHeight {
				t.Errorf("got %dx%d, want %dx%d", jobs[0].Width, jobs[0].Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestPlanOrder(t *testing.T) {
	specs := []models.VariantSpec{
		{Width: 375, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1, 2}, Quality: 80, Format: "jpg"},
		{Width: 750, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1}, Quality: 60, Format: "png"},
	}
	jobs := Plan(specs)
	var got []int
	for _, j := range jobs {
		got = append(got, j.Width)
	}
	if diff := cmp.Diff([]int{375, 750, 750}, got); diff != "" {
		t.Errorf("enumeration order (-want +got):\n%s", diff)
	}
	if jobs[2].SpecIndex != 1 || jobs[2].Format != "png" || jobs[2].Height != 562 {
		t.Errorf("last job should come from the second spec: %+v", jobs[2])
	}
}
