package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNoqa(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []string
	}{
		{"with colon", "def add(a, b):  # noqa: PL001", []string{"PL001"}},
		{"without colon", "def add(a, b):  # noqa PL001", []string{"PL001"}},
		{"multiple rules", "def add(a, b):  # noqa: PL001, PL002", []string{"PL001", "PL002"}},
		{"multiple without colon", "def add(a, b):  # noqa PL001,PL003", []string{"PL001", "PL003"}},
		{"bare noqa suppresses nothing", "def add(a, b):  # noqa", nil},
		{"no comment", "def add(a, b):", nil},
		{"unrelated comment", "def add(a, b):  # computes a sum", nil},
		{"non-rule token ignored", "def add(a, b):  # noqa: E501", nil},
		{"mixed tokens", "x = 1  # noqa: E501, PL002", []string{"PL002"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNoqa(tc.line)
			assert.Len(t, got, len(tc.want))
			for _, id := range tc.want {
				assert.Contains(t, got, id)
			}
		})
	}
}

func TestParseFileNoqa(t *testing.T) {
	t.Run("comment on first line", func(t *testing.T) {
		got := parseFileNoqa([]string{"# noqa: PL004", "", "def test_x(): pass"})
		assert.Contains(t, got, "PL004")
	})

	t.Run("docstring line", func(t *testing.T) {
		got := parseFileNoqa([]string{`"""Legacy tests."""  # noqa: PL004`, ""})
		assert.Contains(t, got, "PL004")
	})

	t.Run("too late to be file scoped", func(t *testing.T) {
		got := parseFileNoqa([]string{"# a", "# b", "# c", "# noqa: PL004"})
		assert.Empty(t, got)
	})

	t.Run("after code does not count", func(t *testing.T) {
		got := parseFileNoqa([]string{"import os", "# noqa: PL004"})
		assert.Empty(t, got)
	})
}

func TestMarkerFromDecorator(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"pytest.mark.unit", "unit"},
		{"pytest.mark.integration", "integration"},
		{"pytest.mark.e2e", "e2e"},
		{"pytest.mark.unit()", "unit"},
		{"mark.unit", "unit"},
		{"custom.ns.mark.e2e", "e2e"},
		{"pytest.mark.slow", ""},
		{"pytest.mark.unit(reason='x')", ""},
		{"staticmethod", ""},
		{"pytest.fixture", ""},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			assert.Equal(t, tc.want, MarkerFromDecorator(tc.expr))
		})
	}
}

func TestIsTestName(t *testing.T) {
	assert.True(t, IsTestName("test_add"))
	assert.True(t, IsTestName("test_Calculator_multiply"))
	assert.False(t, IsTestName("test"))
	assert.False(t, IsTestName("mytest_add"))
	assert.False(t, IsTestName("testadd"))
}
