package extensions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []any
		expected string
		err      error
	}{
		{
			name:     "positional",
			format:   "{0} of {1}",
			args:     []any{3, "ten"},
			expected: "3 of ten",
		},
		{
			name:     "repeated and reordered",
			format:   "{1}{0}{1}",
			args:     []any{"a", "b"},
			expected: "bab",
		},
		{
			name:     "escaped braces",
			format:   "{{literal}} {0}",
			args:     []any{true},
			expected: "{literal} true",
		},
		{
			name:   "missing argument",
			format: "{2}",
			args:   []any{1},
			err:    ErrFormatArgMissing,
		},
		{
			name:   "unclosed",
			format: "{0",
			args:   []any{1},
			err:    ErrFormatInvalid,
		},
		{
			name:   "not a number",
			format: "{x}",
			err:    ErrFormatInvalid,
		},
		{
			name:   "stray closing brace",
			format: "a}b",
			err:    ErrFormatInvalid,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := FormatWith(test.format, test.args...)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" x "))
}

func TestTruncate(t *testing.T) {
	input := "The quick brown fox jumps over the lazy dog."

	assert.Equal(t, "The quick...", Truncate(input, 10))
	assert.Equal(t, "The quick~", Truncate(input, 10, "~"))
	assert.Equal(t, input, Truncate(input, 100))
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
}

func TestToTitleCase(t *testing.T) {
	assert.Equal(t, "The Quick Brown Fox", ToTitleCase("the quick brown fox"))
	assert.Equal(t, "Hello World", ToTitleCase("hELLO wORLD"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("The quick brown fox", 'x', 'z'))
	assert.False(t, ContainsAny("The quick brown fox", 'z', 'y'))
	assert.False(t, ContainsAny("The quick brown fox"))
}

func TestRemoveWhitespace(t *testing.T) {
	assert.Equal(t, "Thequickbrownfox", RemoveWhitespace(" The quick\tbrown\nfox "))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("12345"))
	assert.False(t, IsNumeric("12a45"))
	assert.False(t, IsNumeric("-1"))
}

func TestLeftRight(t *testing.T) {
	assert.Equal(t, "hello", Left("hello world", 5))
	assert.Equal(t, "world", Right("hello world", 5))
	assert.Equal(t, "hello world", Left("hello world", 20))
	assert.Equal(t, "hello world", Right("hello world", 20))
	assert.Equal(t, "", Left("hello world", 0))
}

func TestRemoveFromEnd(t *testing.T) {
	assert.Equal(t, "abcd", RemoveFromEnd("abcdefg", 3))
	assert.Equal(t, "", RemoveFromEnd("abcdefg", 7))
	assert.Equal(t, "", RemoveFromEnd("abcdefg", 8))
	assert.Equal(t, "abcdefg", RemoveFromEnd("abcdefg", 0))
}

func TestContainsIgnoreCase(t *testing.T) {
	assert.True(t, ContainsIgnoreCase("The Quick Brown Fox", "quick brown"))
	assert.True(t, ContainsIgnoreCase("STRASSE", "strasse"))
	assert.False(t, ContainsIgnoreCase("The Quick Brown Fox", "lazy"))
}

func TestSnakeAndKebab(t *testing.T) {
	assert.Equal(t, "some_variable_name", ToSnakeCase("SomeVariableName"))
	assert.Equal(t, "some-other-variable-name", ToKebabCase("SomeOtherVariableName"))
	assert.Equal(t, "already_snake", ToSnakeCase("already_snake"))
}

func TestBase64(t *testing.T) {
	encoded := ToBase64(ToByteArray("Hello, world!"))
	assert.Equal(t, "SGVsbG8sIHdvcmxkIQ==", encoded)

	decoded, err := FromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", string(decoded))

	for _, s := range []string{"", "AA==", "AAE=", "AAEC", "SGVsbG8sIHdvcmxkIQ=="} {
		b, err := FromBase64(s)
		require.NoError(t, err)
		assert.Equal(t, s, ToBase64(b))
	}

	_, err = FromBase64("not base64!")
	assert.Error(t, err)
}

func TestReplaceMany(t *testing.T) {
	actual := ReplaceMany(
		"The quick brown fox jumps over the lazy dog.",
		"quick", "slow",
		"brown", "red",
		"lazy", "tired",
	)
	assert.Equal(t, "The slow red fox jumps over the tired dog.", actual)

	// pairs apply in order
	assert.Equal(t, "c", ReplaceMany("a", "a", "b", "b", "c"))
	assert.Panics(t, func() { ReplaceMany("a", "a") })
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"The", "quick", "brown", "fox"}, SplitAndTrim("  The quick   brown fox   ", ' '))
	assert.Equal(t, []string{"a", "b", "c"}, SplitAndTrim("a, b;c", ',', ';'))
}

func TestToSlug(t *testing.T) {
	assert.Equal(t,
		"the-quick-brown-fox-jumped-over-the-lazy-dog-123",
		ToSlug("The quick brown fox jumped over the lazy dog 123."),
	)
	assert.Equal(t, "a-b", ToSlug("--A!!  b--"))
}

func TestToProperCase(t *testing.T) {
	assert.Equal(t,
		"The quick brown fox. The lazy dog! It ran away? No way.",
		ToProperCase("the quick brown fox. the lazy dog! it ran away? no way."),
	)
	assert.Equal(t, "Hello world", ToProperCase("  HELLO WORLD  "))
}

func TestUnixTimeStamp(t *testing.T) {
	actual := UnixTimeStampToTime(1700000000.5)

	assert.Equal(t, time.Local, actual.Location())
	assert.Equal(t, int64(1700000000), actual.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(actual.Nanosecond()))
	assert.InDelta(t, 1700000000.5, TimeToUnixTimeStamp(actual), 1e-6)
}
