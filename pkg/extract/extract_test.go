package extract

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{
			name:     "plain text passes through",
			filename: "notes.txt",
			data:     []byte("hello debate"),
			want:     "hello debate",
		},
		{
			name:     "markdown treated as text",
			filename: "brief.md",
			data:     []byte("# Opening\nstatement"),
			want:     "# Opening\nstatement",
		},
		{
			name:     "invalid utf-8 bytes dropped",
			filename: "raw.txt",
			data:     []byte{'o', 'k', 0xff, 0xfe, '!'},
			want:     "ok!",
		},
		{
			name:     "empty input",
			filename: "empty.txt",
			data:     nil,
			want:     "",
		},
		{
			name:     "malformed pdf degrades to empty",
			filename: "broken.pdf",
			data:     []byte("%PDF-1.4 garbage without xref"),
			want:     "",
		},
		{
			name:     "pdf extension is case-insensitive",
			filename: "BROKEN.PDF",
			data:     []byte("not a pdf at all"),
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.filename, tt.data)
			if got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
