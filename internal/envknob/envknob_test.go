package envknob

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestString(t *testing.T) {
	t.Setenv(Backend, "  Native ")
	if got := String(Backend); got != "native" {
		t.Errorf("String(%s) = %q, want %q", Backend, got, "native")
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"0", false},
		{"FALSE", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.val), func(t *testing.T) {
			t.Setenv(TrackSites, tt.val)
			if got := Bool(TrackSites); got != tt.want {
				t.Errorf("Bool(%q) = %v, want %v", tt.val, got, tt.want)
			}
		})
	}
}

func TestLogCurrent(t *testing.T) {
	t.Setenv(Backend, "portable")
	t.Setenv(TrackSites, "1")
	String(Backend)
	Bool(TrackSites)

	var got []string
	LogCurrent(func(format string, args ...any) {
		got = append(got, fmt.Sprintf(format, args...))
	})
	want := []string{
		`envknob: UNFAIRLOCK_BACKEND="portable"`,
		`envknob: UNFAIRLOCK_TRACK_SITES="true"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LogCurrent mismatch (-want +got):\n%s", diff)
	}
}
