package conversation

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const Skip = "skip"

var (
	daysPattern     = regexp.MustCompile(`(\d+)\s*days?`)
	weeksPattern    = regexp.MustCompile(`(\d+)\s*weeks?`)
	hoursPattern    = regexp.MustCompile(`(\d+)\s*hours?`)
	questionPattern = regexp.MustCompile(`(?i)^\d+\.\s*(.+?)\s*\|\s*(text|image)$`)
)

// ParseDuration accepts "N day(s)", "N week(s)" and "N hour(s)". When several units appear, days
// win over weeks and weeks over hours.
func ParseDuration(input string) (time.Duration, error) {
	text := strings.ToLower(input)

	units := []struct {
		pattern *regexp.Regexp
		unit    time.Duration
	}{
		{daysPattern, 24 * time.Hour},
		{weeksPattern, 7 * 24 * time.Hour},
		{hoursPattern, time.Hour},
	}

	for _, u := range units {
		match := u.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || n > math.MaxInt64/int64(u.unit) {
			return 0, errs.Invalid("duration", "Duration is too long")
		}
		return time.Duration(n) * u.unit, nil
	}

	return 0, errs.Invalid("duration", "Invalid format")
}

// ParseOptionalInt returns nil for "skip" and for zero.
func ParseOptionalInt(field, input string) (*int, error) {
	text := strings.TrimSpace(input)
	if strings.EqualFold(text, Skip) {
		return nil, nil
	}

	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return nil, errs.Invalid(field, "Invalid number")
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}

// ParseImageURL returns "" for "skip".
func ParseImageURL(input string) (string, error) {
	text := strings.TrimSpace(input)
	if strings.EqualFold(text, Skip) {
		return "", nil
	}

	validURL, err := url.ParseRequestURI(text)
	if err != nil {
		return "", errs.Invalid("image", "Please provide a valid url")
	}
	return validURL.String(), nil
}

// ParseQuestions reads one "<n>. <question> | <text|image>" per line. Lines that do not match
// are dropped; an empty result is an error.
func ParseQuestions(input string) ([]models.Question, error) {
	var questions []models.Question

	for _, line := range strings.Split(input, "\n") {
		match := questionPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		questions = append(questions, models.Question{
			Prompt: strings.TrimSpace(match[1]),
			Kind:   models.AnswerKind(strings.ToLower(match[2])),
		})
	}

	if len(questions) == 0 {
		return nil, errs.Invalid("questions", "No valid questions found")
	}
	return questions, nil
}
