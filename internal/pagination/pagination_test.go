package pagination

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name                string
		page, limit         int
		wantPage, wantLimit int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"valid", 4, 25, 4, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := Clamp(tt.page, tt.limit)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("Clamp(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Errorf("Offset(1, 20) = %d, want 0", got)
	}
	if got := Offset(3, 10); got != 20 {
		t.Errorf("Offset(3, 10) = %d, want 20", got)
	}
}

func TestNewMetaTotalPages(t *testing.T) {
	tests := []struct {
		total, limit int
		want         int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
	}
	for _, tt := range tests {
		meta := NewMeta(1, tt.limit, tt.total)
		if meta.TotalPages != tt.want {
			t.Errorf("NewMeta(1, %d, %d).TotalPages = %d, want %d",
				tt.limit, tt.total, meta.TotalPages, tt.want)
		}
	}
}
