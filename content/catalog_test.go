package content

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/milk9111/commscreen/archive"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func openPack(t *testing.T, files map[string][]byte, order []string) *archive.Archive {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	a, err := archive.NewArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "test.uqm")
	if err != nil {
		t.Fatalf("NewArchive: %v", err)
	}
	return a
}

func TestParseManifest(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    []Entry
		wantErr bool
	}{
		{
			name: "negative_hotspot_flips",
			data: "bg.png 0 0 -5 3\n",
			want: []Entry{{Path: "comm/x/bg.png", Hotspot: image.Pt(5, 3)}},
		},
		{
			name: "order_blank_lines_and_crlf",
			data: "a.png 1 2 10 20\r\n\r\nb.png 1 2 -7 -8\r\n",
			want: []Entry{
				{Path: "comm/x/a.png", Hotspot: image.Pt(10, 20)},
				{Path: "comm/x/b.png", Hotspot: image.Pt(7, 8)},
			},
		},
		{
			name: "tabs_and_runs_of_spaces",
			data: "a.png\t0   0\t 4     2",
			want: []Entry{{Path: "comm/x/a.png", Hotspot: image.Pt(4, 2)}},
		},
		{name: "too_few_fields", data: "a.png 0 0\n", wantErr: true},
		{name: "bad_x", data: "a.png 0 0 q 2\n", wantErr: true},
		{name: "extra_trailing_field", data: "a.png 0 0 1 2 3\n", wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseManifest("comm/x", []byte(c.data))
			if c.wantErr {
				if !errors.Is(err, ErrManifest) {
					t.Fatalf("expected ErrManifest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseManifest: %v", err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("expected %d entries, got %d", len(c.want), len(got))
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("entry %d: expected %+v, got %+v", i, c.want[i], got[i])
				}
			}
		})
	}
}

func TestBuildSelectsManifestByAlias(t *testing.T) {
	files := map[string][]byte{
		"base/comm/urquan/urquan.ani": []byte("u.png 0 0 0 0\n"),
		"base/comm/urquan/u.png":      pngBytes(t, 2, 2, color.White),
		"base/comm/zoqfot/x.ani": []byte(
			"bg.png 0 0 0 0\n" +
				"s1.png 0 0 -5 3\n" +
				"s2.png 0 0 1 1\n"),
		"base/comm/zoqfot/bg.png": pngBytes(t, 8, 6, color.Black),
		"base/comm/zoqfot/s1.png": pngBytes(t, 2, 1, color.White),
		"base/comm/zoqfot/s2.png": pngBytes(t, 3, 3, color.White),
	}
	order := []string{
		"base/comm/urquan/urquan.ani",
		"base/comm/urquan/u.png",
		"base/comm/zoqfot/x.ani",
		"base/comm/zoqfot/bg.png",
		"base/comm/zoqfot/s1.png",
		"base/comm/zoqfot/s2.png",
	}
	a := openPack(t, files, order)

	cat, err := Build(a, []string{"zoqfotpik", "zoqfot"}, WithConcurrency(2))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cat.Manifest != "base/comm/zoqfot/x.ani" || cat.Alias != "zoqfot" {
		t.Fatalf("unexpected selection %s via %s", cat.Manifest, cat.Alias)
	}

	wantPaths := []string{"base/comm/zoqfot/bg.png", "base/comm/zoqfot/s1.png", "base/comm/zoqfot/s2.png"}
	if cat.Len() != len(wantPaths) {
		t.Fatalf("expected %d frames, got %d", len(wantPaths), cat.Len())
	}
	for i, p := range wantPaths {
		if cat.Frame(i).Path != p {
			t.Fatalf("frame %d: expected %s, got %s", i, p, cat.Frame(i).Path)
		}
	}
	if got := cat.Background().Image.Bounds().Size(); got != image.Pt(8, 6) {
		t.Fatalf("expected 8x6 background, got %v", got)
	}
	if got := cat.Frame(1).Hotspot; got != image.Pt(5, 3) {
		t.Fatalf("expected hotspot (5,3), got %v", got)
	}
	if got := cat.Frame(1).Bounds(); got != image.Rect(5, 3, 7, 4) {
		t.Fatalf("unexpected frame bounds %v", got)
	}
	if !strings.Contains(cat.String(), "s2.png hotspot(1, 1) 3x3") {
		t.Fatalf("unexpected dump:\n%s", cat.String())
	}
}

func TestBuildAliasOrderWins(t *testing.T) {
	files := map[string][]byte{
		"comm/a/a.ani":  []byte("bg.png 0 0 0 0\n"),
		"comm/a/bg.png": pngBytes(t, 1, 1, color.White),
		"comm/b/b.ani":  []byte("bg.png 0 0 0 0\n"),
		"comm/b/bg.png": pngBytes(t, 1, 1, color.White),
	}
	a := openPack(t, files, []string{"comm/a/a.ani", "comm/a/bg.png", "comm/b/b.ani", "comm/b/bg.png"})

	cat, err := Build(a, []string{"b", "a"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cat.Manifest != "comm/b/b.ani" {
		t.Fatalf("expected first alias to win, got %s", cat.Manifest)
	}
}

func TestBuildErrors(t *testing.T) {
	bg := pngBytes(t, 1, 1, color.White)

	t.Run("no_manifest", func(t *testing.T) {
		a := openPack(t, map[string][]byte{"comm/a/a.ani": []byte("bg.png 0 0 0 0\n")}, []string{"comm/a/a.ani"})
		if _, err := Build(a, []string{"zoqfot"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("alias_is_a_whole_segment", func(t *testing.T) {
		a := openPack(t, map[string][]byte{"comm/zoqfotpik/a.ani": []byte("bg.png 0 0 0 0\n")}, []string{"comm/zoqfotpik/a.ani"})
		if _, err := Build(a, []string{"zoqfot"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("undecodable_frame", func(t *testing.T) {
		files := map[string][]byte{
			"comm/a/a.ani":   []byte("bg.png 0 0 0 0\nbad.png 0 0 0 0\n"),
			"comm/a/bg.png":  bg,
			"comm/a/bad.png": []byte("garbage"),
		}
		a := openPack(t, files, []string{"comm/a/a.ani", "comm/a/bg.png", "comm/a/bad.png"})
		cat, err := Build(a, []string{"a"})
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
		if cat != nil {
			t.Fatalf("partial catalog returned")
		}
	})

	t.Run("missing_frame", func(t *testing.T) {
		files := map[string][]byte{
			"comm/a/a.ani":  []byte("bg.png 0 0 0 0\ngone.png 0 0 0 0\n"),
			"comm/a/bg.png": bg,
		}
		a := openPack(t, files, []string{"comm/a/a.ani", "comm/a/bg.png"})
		_, err := Build(a, []string{"a"})
		if !errors.Is(err, ErrDecode) || !errors.Is(err, archive.ErrNotFound) {
			t.Fatalf("expected ErrDecode wrapping archive.ErrNotFound, got %v", err)
		}
	})

	t.Run("empty_manifest", func(t *testing.T) {
		a := openPack(t, map[string][]byte{"comm/a/a.ani": []byte("\n")}, []string{"comm/a/a.ani"})
		if _, err := Build(a, []string{"a"}); !errors.Is(err, ErrManifest) {
			t.Fatalf("expected ErrManifest, got %v", err)
		}
	})

	t.Run("custom_pattern", func(t *testing.T) {
		files := map[string][]byte{
			"ships/a/a.ani":  []byte("bg.png 0 0 0 0\n"),
			"ships/a/bg.png": bg,
		}
		a := openPack(t, files, []string{"ships/a/a.ani", "ships/a/bg.png"})
		if _, err := Build(a, []string{"a"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound with default pattern, got %v", err)
		}
		if _, err := Build(a, []string{"a"}, WithManifestPattern(`ships/.*\.ani`)); err != nil {
			t.Fatalf("Build with pattern: %v", err)
		}
	})
}
