package match

import "testing"

// --- Similarity tests ---

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "identical fingerprints",
			a:        "10110010",
			b:        "10110010",
			expected: 100,
		},
		{
			name:     "completely different",
			a:        "1111",
			b:        "0000",
			expected: 0,
		},
		{
			name:     "half matching",
			a:        "1100",
			b:        "1010",
			expected: 50,
		},
		{
			name:     "length mismatch is not a match",
			a:        "1010",
			b:        "101",
			expected: 0,
		},
		{
			name:     "empty left is not a match",
			a:        "",
			b:        "1010",
			expected: 0,
		},
		{
			name:     "empty right is not a match",
			a:        "1010",
			b:        "",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.expected {
				t.Errorf("Similarity(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"10110010", "10010011"},
		{"1111", "0000"},
		{"10", "11"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

// --- DistanceScore tests ---

func TestDistanceScore(t *testing.T) {
	tests := []struct {
		name      string
		distance  float64
		threshold float64
		expected  float64
	}{
		{"zero distance scores 100", 0, 100, 100},
		{"exactly at threshold scores 0", 100, 100, 0},
		{"halfway scores 50", 50, 100, 50},
		{"beyond threshold floors at 0", 250, 100, 0},
		{"non-positive threshold scores 0", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistanceScore(tt.distance, tt.threshold); got != tt.expected {
				t.Errorf("DistanceScore(%v, %v) = %v, expected %v",
					tt.distance, tt.threshold, got, tt.expected)
			}
		})
	}
}

// --- Score tests ---

func TestScore_Weighting(t *testing.T) {
	w := DefaultWeights()

	if got := Score(100, 100, w); got != 100 {
		t.Errorf("perfect match should score 100, got %v", got)
	}
	// similarity 100, distance score 50 -> 100*0.6 + 50*0.4 = 80
	if got := Score(100, 50, w); got != 80 {
		t.Errorf("expected 80, got %v", got)
	}
	// similarity weighs more than proximity
	if Score(100, 0, w) <= Score(0, 100, w) {
		t.Error("similarity should outweigh proximity at default weights")
	}
}

func TestScore_Monotonic(t *testing.T) {
	w := DefaultWeights()

	// Non-increasing as distance score decreases, similarity fixed.
	prev := Score(90, 100, w)
	for ds := 90.0; ds >= 0; ds -= 10 {
		cur := Score(90, ds, w)
		if cur > prev {
			t.Fatalf("score increased as distance score dropped: %v -> %v", prev, cur)
		}
		prev = cur
	}

	// Non-increasing as similarity decreases, distance score fixed.
	prev = Score(100, 40, w)
	for sim := 90.0; sim >= 0; sim -= 10 {
		cur := Score(sim, 40, w)
		if cur > prev {
			t.Fatalf("score increased as similarity dropped: %v -> %v", prev, cur)
		}
		prev = cur
	}
}

// --- rounding tests ---

func TestRounding(t *testing.T) {
	if got := RoundMeters(12.49); got != 12 {
		t.Errorf("RoundMeters(12.49) = %v", got)
	}
	if got := RoundMeters(12.5); got != 13 {
		t.Errorf("RoundMeters(12.5) = %v", got)
	}
	if got := RoundTenth(84.94); got != 84.9 {
		t.Errorf("RoundTenth(84.94) = %v", got)
	}
	if got := RoundTenth(84.96); got != 85.0 {
		t.Errorf("RoundTenth(84.96) = %v", got)
	}
}
