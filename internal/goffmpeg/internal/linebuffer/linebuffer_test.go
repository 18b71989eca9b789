package linebuffer_test

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/wader/svgcast/internal/goffmpeg/internal/linebuffer"
)

func TestLastLines(t *testing.T) {
	testCases := []struct {
		writes   string
		expected string
	}{
		{writes: "", expected: ""},
		{writes: "a\n,b\n", expected: "a\nb\n"},
		{writes: "a\r", expected: "a\r"},
		{writes: "a\n,b\n,c\n,d\n", expected: "b\nc\nd\n"},
		{writes: "a\n,b\n,c\n,1\n,2\n,3\n", expected: "1\n2\n3\n"},
		{writes: "a,b\nc", expected: "ab\nc"},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			lb := linebuffer.NewLastLines(3)
			for _, w := range strings.Split(tC.writes, ",") {
				lb.Write([]byte(w))
			}
			lb.Close()

			if tC.expected != lb.String() {
				t.Errorf("expected %q, got %q", tC.expected, lb.String())
			}
		})
	}
}

func TestFn(t *testing.T) {
	var lines []string
	fn := linebuffer.NewFn(func(line string) { lines = append(lines, line) })
	fn.Write([]byte("frame=1\nfps="))
	fn.Write([]byte("2\nprogress=end"))
	fn.Close()

	expected := []string{"frame=1\n", "fps=2\n", "progress=end"}
	if !reflect.DeepEqual(expected, lines) {
		t.Errorf("expected %q, got %q", expected, lines)
	}
}
