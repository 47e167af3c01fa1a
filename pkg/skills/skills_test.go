package skills

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		required  []string
		candidate []string
		want      int
	}{
		{
			name:      "two of three",
			required:  []string{"Python", "Django", "JavaScript"},
			candidate: []string{"Python", "Django", "React"},
			want:      7,
		},
		{
			name:      "full coverage",
			required:  []string{"Go", "Postgres"},
			candidate: []string{"go", "PostgreSQL"},
			want:      10,
		},
		{
			name:      "no coverage",
			required:  []string{"Rust"},
			candidate: []string{"Go"},
			want:      0,
		},
		{
			name:      "empty requirements",
			required:  nil,
			candidate: []string{"Go"},
			want:      0,
		},
		{
			name:      "empty candidate",
			required:  []string{"Go"},
			candidate: nil,
			want:      0,
		},
		{
			name:      "substring either direction",
			required:  []string{"AWS Lambda", "Kubernetes"},
			candidate: []string{"Lambda", "k8s administration on Kubernetes"},
			want:      10,
		},
		{
			name:      "one of six rounds to nearest",
			required:  []string{"a1", "b2", "c3", "d4", "e5", "f6"},
			candidate: []string{"a1"},
			want:      2,
		},
		{
			name:      "blank requirements ignored",
			required:  []string{"", "  ", "Go"},
			candidate: []string{"Go"},
			want:      10,
		},
		{
			name:      "blank skills never match",
			required:  []string{"Go"},
			candidate: []string{"", "   "},
			want:      0,
		},
	}
	for _, tt := range tests {
		if got := Score(tt.required, tt.candidate); got != tt.want {
			t.Errorf("%s: Score = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMissing(t *testing.T) {
	required := []string{"Python", "Django", "JavaScript", "javascript", "  "}
	candidate := []string{"python", "Django REST"}

	got := Missing(required, candidate)
	want := []string{"JavaScript"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing = %v, want %v (original casing, deduplicated)", got, want)
	}

	got = Missing([]string{"Python", "Django", "React", "TypeScript"}, []string{"Python", "Django"})
	want = []string{"React", "TypeScript"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing = %v, want %v", got, want)
	}

	if got := Missing(nil, candidate); len(got) != 0 {
		t.Errorf("Missing with no requirements = %v, want empty", got)
	}
}
