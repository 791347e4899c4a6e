package mirror

import (
	"slices"
	"testing"
)

func collect(body string) []string {
	return slices.Collect(ExtractLinks([]byte(body)))
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "document order across href and src",
			body: `<html><head><link href="style.css"><script src="/app.js"></script></head>
<body><a href="/a.html">A</a><img src="https://ex.com/img.png"></body></html>`,
			want: []string{"style.css", "/app.js", "/a.html", "https://ex.com/img.png"},
		},
		{
			name: "attribute names are case-insensitive",
			body: `<A HREF="/upper.html">x</A><IMG Src='pic.gif'>`,
			want: []string{"/upper.html", "pic.gif"},
		},
		{
			name: "unquoted values and entities",
			body: `<a href=/plain.html>p</a><a href="/q?a=1&amp;b=2">q</a>`,
			want: []string{"/plain.html", "/q?a=1&b=2"},
		},
		{
			name: "duplicates are yielded once",
			body: `<a href="/x">1</a><a href="/y">2</a><a href="/x">3</a>`,
			want: []string{"/x", "/y"},
		},
		{
			name: "empty values are skipped",
			body: `<a href="">empty</a><img src="  ">`,
			want: nil,
		},
		{
			name: "script content is not scanned",
			body: `<script>var s = '<a href="/fake">';</script><a href="/real">r</a>`,
			want: []string{"/real"},
		},
		{
			name: "other attributes are ignored",
			body: `<a data-x="/no" title="/no" href="/yes">y</a>`,
			want: []string{"/yes"},
		},
		{
			name: "malformed markup yields what it can",
			body: `<a href="/ok">ok</a><img src="/broken.png" <div <<>> <a href="/after">`,
			want: []string{"/ok", "/broken.png", "/after"},
		},
		{
			name: "not HTML at all",
			body: "\x89PNG\r\n\x1a\n\x00\x00binary",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := collect(tt.body); !slices.Equal(got, tt.want) {
				t.Errorf("ExtractLinks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractLinks_Restartable(t *testing.T) {
	t.Parallel()

	seq := ExtractLinks([]byte(`<a href="/1">1</a><a href="/2">2</a>`))
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) || len(first) != 2 {
		t.Errorf("expected two identical passes, got %q and %q", first, second)
	}
}

func TestExtractLinks_EarlyStop(t *testing.T) {
	t.Parallel()

	var got []string
	for link := range ExtractLinks([]byte(`<a href="/1"></a><a href="/2"></a><a href="/3"></a>`)) {
		got = append(got, link)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"/1", "/2"}) {
		t.Errorf("unexpected links %q", got)
	}
}
