package disk

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		freeGB float64
		want   Level
	}{
		{"plenty", 120.0, LevelOK},
		{"just above warn", 10.0, LevelOK},
		{"below warn", 9.9, LevelWarn},
		{"between thresholds", 7.5, LevelWarn},
		{"just above critical", 5.0, LevelWarn},
		{"below critical", 4.9, LevelCritical},
		{"empty disk", 0.0, LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.freeGB); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.freeGB, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if LevelOK.String() != "OK" || LevelWarn.String() != "WARN" || LevelCritical.String() != "CRITICAL" {
		t.Errorf("unexpected level names: %v %v %v", LevelOK, LevelWarn, LevelCritical)
	}
}
