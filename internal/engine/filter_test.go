package engine

import (
	"reflect"
	"testing"
)

func TestFilter_Apply(t *testing.T) {
	paths := []string{
		"svc/api/Dockerfile",
		"svc/web/Dockerfile",
		"svc/web/testdata/Dockerfile",
		"ops/docker-compose.yml",
		"ops/dev.compose.yaml",
	}

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:     "no patterns keeps everything",
			expected: paths,
		},
		{
			name:     "include by directory",
			include:  []string{"svc/**"},
			expected: []string{"svc/api/Dockerfile", "svc/web/Dockerfile", "svc/web/testdata/Dockerfile"},
		},
		{
			name:     "exclude testdata",
			exclude:  []string{"**/testdata/**"},
			expected: []string{"svc/api/Dockerfile", "svc/web/Dockerfile", "ops/docker-compose.yml", "ops/dev.compose.yaml"},
		},
		{
			name:     "base name pattern matches at any depth",
			exclude:  []string{"dev.*"},
			expected: []string{"svc/api/Dockerfile", "svc/web/Dockerfile", "svc/web/testdata/Dockerfile", "ops/docker-compose.yml"},
		},
		{
			name:     "single star stays in one directory",
			include:  []string{"svc/*/Dockerfile"},
			expected: []string{"svc/api/Dockerfile", "svc/web/Dockerfile"},
		},
		{
			name:     "include and exclude",
			include:  []string{"svc/**"},
			exclude:  []string{"svc/web/**"},
			expected: []string{"svc/api/Dockerfile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.include, tt.exclude, 0)
			if err != nil {
				t.Fatalf("NewFilter: %v", err)
			}
			got := f.Apply(paths)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Apply = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFilter_Limit(t *testing.T) {
	paths := []string{"a", "b", "c"}
	var nilFilter *Filter
	if got := nilFilter.Limit(paths); len(got) != 3 {
		t.Fatalf("nil filter must not limit")
	}
	f, _ := NewFilter(nil, nil, 2)
	if got := f.Limit(paths); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Limit = %v", got)
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	if _, err := NewFilter([]string{"[oops"}, nil, 0); err == nil {
		t.Fatalf("expected include error")
	}
	if _, err := NewFilter(nil, []string{"[z-"}, 0); err == nil {
		t.Fatalf("expected exclude error")
	}
}
