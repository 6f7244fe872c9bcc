package model

import "testing"

// TestClampScore tests forcing scores into the valid range.
func TestClampScore(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"below range clamps to 1", 0, 1},
		{"negative clamps to 1", -3, 1},
		{"in range unchanged", 7.5, 7.5},
		{"lower bound unchanged", 1, 1},
		{"upper bound unchanged", 10, 10},
		{"above range clamps to 10", 11, 10},
	}

	for _, tc := range testCases {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClampScore(tc.input); got != tc.expected {
				t.Errorf("ClampScore(%f) = %f, expected %f", tc.input, got, tc.expected)
			}
		})
	}
}

// TestScoresClamp tests in-place normalization of present scores.
func TestScoresClamp(t *testing.T) {
	t.Parallel()

	t.Run("nil receiver is a no-op", func(t *testing.T) {
		t.Parallel()
		var s *Scores
		s.Clamp() // must not panic
	})

	t.Run("present scores are clamped, absent left nil", func(t *testing.T) {
		t.Parallel()

		low := 0.0
		high := 12.0
		ok := 8.0
		s := &Scores{
			Usability:     &low,
			Accessibility: &high,
			Overall:       &ok,
		}
		s.Clamp()

		if *s.Usability != 1 {
			t.Errorf("Usability = %f, expected 1", *s.Usability)
		}
		if *s.Accessibility != 10 {
			t.Errorf("Accessibility = %f, expected 10", *s.Accessibility)
		}
		if *s.Overall != 8 {
			t.Errorf("Overall = %f, expected 8", *s.Overall)
		}
		if s.VisualHierarchy != nil {
			t.Error("VisualHierarchy should stay nil")
		}
	})
}
