package conversation

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"3 days", 3 * 86400000 * time.Millisecond},
		{"1 week", 604800000 * time.Millisecond},
		{"24 hours", 24 * time.Hour},
		{"1 Day", 24 * time.Hour},
		{"2weeks", 14 * 24 * time.Hour},
		{"2 weeks and 3 days", 3 * 24 * time.Hour},
		{"1 week 5 hours", 7 * 24 * time.Hour},
		{"106751 days", 106751 * 24 * time.Hour},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	for _, input := range []string{"garbage", "", "3 minutes", "days", "200000 days", "20000 weeks", "9999999999999 hours", "99999999999999999999 hours"} {
		_, err := ParseDuration(input)
		assert.True(t, errs.IsValidation(err), input)
	}
}

func TestParseOptionalInt(t *testing.T) {
	n, err := ParseOptionalInt("positions", "skip")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = ParseOptionalInt("positions", "SKIP")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = ParseOptionalInt("positions", " 3 ")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 3, *n)

	n, err = ParseOptionalInt("positions", "0")
	require.NoError(t, err)
	assert.Nil(t, n)

	for _, input := range []string{"three", "3abc", "-1", "1.5"} {
		_, err := ParseOptionalInt("positions", input)
		assert.True(t, errs.IsValidation(err), input)
	}
}

func TestParseImageURL(t *testing.T) {
	u, err := ParseImageURL("skip")
	require.NoError(t, err)
	assert.Empty(t, u)

	u, err = ParseImageURL("https://cdn.example.com/banner.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/banner.png", u)

	_, err = ParseImageURL("not a url")
	assert.True(t, errs.IsValidation(err))
}

func TestParseQuestions(t *testing.T) {
	input := "1. Why join? | text\n" +
		"garbage line\n" +
		"2. Upload screenshot | IMAGE\n" +
		"3. Missing kind\n" +
		"  4.   Spaced out   |   Text  "

	questions, err := ParseQuestions(input)
	require.NoError(t, err)
	assert.Equal(t, []models.Question{
		{Prompt: "Why join?", Kind: models.AnswerText},
		{Prompt: "Upload screenshot", Kind: models.AnswerImage},
		{Prompt: "Spaced out", Kind: models.AnswerText},
	}, questions)

	_, err = ParseQuestions("nothing useful\nhere")
	assert.True(t, errs.IsValidation(err))
}
