package media

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   error
	}{
		{"empty header", "", 1000, 0, 0, true, nil},
		{"full range", "bytes=0-999", 1000, 0, 999, false, nil},
		{"open end", "bytes=500-", 1000, 500, 999, false, nil},
		{"suffix range", "bytes=-500", 1000, 500, 999, false, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, false, nil},
		{"middle range", "bytes=100-199", 1000, 100, 199, false, nil},
		{"end clamped to size", "bytes=0-2000", 1000, 0, 999, false, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, false, nil},
		{"last byte", "bytes=999-", 1000, 999, 999, false, nil},
		{"multi range takes first", "bytes=0-99, 200-299", 1000, 0, 99, false, nil},

		{"start at size", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"window past size", "bytes=1500-2000", 1000, 0, 0, false, ErrUnsatisfiable},
		{"no unit", "invalid", 1000, 0, 0, false, ErrInvalidRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrInvalidRange},
		{"garbage start", "bytes=abc-100", 1000, 0, 0, false, ErrInvalidRange},
		{"garbage end", "bytes=0-abc", 1000, 0, 0, false, ErrInvalidRange},
		{"zero suffix", "bytes=-0", 1000, 0, 0, false, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseRange() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange() unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRange() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseRange() = nil")
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange() = [%d, %d], want [%d, %d]", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestServeFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "clip.mp4")
	content := []byte("0123456789abcdef")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := NewServer(nil)

	t.Run("whole file", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/media/clip", nil)
		if err := srv.ServeFile(rr, req, path); err != nil {
			t.Fatalf("ServeFile() error = %v", err)
		}
		if rr.Code != 200 {
			t.Errorf("status = %d, want 200", rr.Code)
		}
		if rr.Body.String() != string(content) {
			t.Errorf("body = %q", rr.Body.String())
		}
		if got := rr.Header().Get("Accept-Ranges"); got != "bytes" {
			t.Errorf("Accept-Ranges = %q", got)
		}
	})

	t.Run("partial content", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/media/clip", nil)
		req.Header.Set("Range", "bytes=4-7")
		if err := srv.ServeFile(rr, req, path); err != nil {
			t.Fatalf("ServeFile() error = %v", err)
		}
		if rr.Code != 206 {
			t.Errorf("status = %d, want 206", rr.Code)
		}
		if rr.Body.String() != "4567" {
			t.Errorf("body = %q, want 4567", rr.Body.String())
		}
		if got := rr.Header().Get("Content-Range"); got != "bytes 4-7/16" {
			t.Errorf("Content-Range = %q", got)
		}
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/media/clip", nil)
		req.Header.Set("Range", "bytes=99-")
		if err := srv.ServeFile(rr, req, path); err != nil {
			t.Fatalf("ServeFile() error = %v", err)
		}
		if rr.Code != 416 {
			t.Errorf("status = %d, want 416", rr.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/media/clip", nil)
		if err := srv.ServeFile(rr, req, filepath.Join(tmpDir, "nope.mp4")); err != nil {
			t.Fatalf("ServeFile() error = %v", err)
		}
		if rr.Code != 404 {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})
}
