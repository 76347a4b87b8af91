package content

import (
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"article", TypeArticle},
		{"product", TypeProduct},
		{"listing", TypeListing},
		{"profile", TypeProfile},
		{"", TypeUnknown},
		{"unknown", TypeUnknown},
		{"recipe", TypeUnknown},
	}

	for _, tt := range tests {
		if got := ParseType(tt.in); got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordLinks(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want []string
	}{
		{
			name: "no link field",
			rec:  Record{Fields: map[string]any{"url": "https://example.com"}},
			want: nil,
		},
		{
			name: "string value",
			rec: Record{
				Fields:    map[string]any{"url": "https://example.com/item/1"},
				LinkField: "url",
			},
			want: []string{"https://example.com/item/1"},
		},
		{
			name: "empty string value",
			rec: Record{
				Fields:    map[string]any{"url": ""},
				LinkField: "url",
			},
			want: nil,
		},
		{
			name: "list value keeps only string entries",
			rec: Record{
				Fields:    map[string]any{"links": []any{"https://a.example", 42, "", "https://b.example"}},
				LinkField: "links",
			},
			want: []string{"https://a.example", "https://b.example"},
		},
		{
			name: "missing field value",
			rec: Record{
				Fields:    map[string]any{"title": "x"},
				LinkField: "links",
			},
			want: nil,
		},
		{
			name: "non-link value type",
			rec: Record{
				Fields:    map[string]any{"links": 7.0},
				LinkField: "links",
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.Links()
			if len(got) != len(tt.want) {
				t.Fatalf("Links() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Links()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
