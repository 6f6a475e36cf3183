// Package phonenum extracts international phone numbers from free-form text.
package phonenum

import (
	"regexp"
	"strings"

	"github.com/waverify/waverify/common"
)

var (
	// strict matches a whole candidate: optional '+', 2-15 digits, no leading zero.
	strict = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	// loose finds embedded candidates inside a line that is not a number itself.
	loose    = regexp.MustCompile(`\+?[1-9]\d{9,14}`)
	stripper = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")
)

// Extract returns all phone numbers found in text, normalized to a leading
// '+', deduplicated with first-occurrence order preserved. Text without any
// number yields an empty slice.
func Extract(text string) []string {
	var numbers []string
	push := func(num string) {
		if !strings.HasPrefix(num, "+") {
			num = "+" + num
		}
		numbers = append(numbers, num)
	}
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		cleaned := stripper.Replace(strings.TrimSpace(line))
		if strict.MatchString(cleaned) {
			push(cleaned)
			continue
		}
		for _, match := range loose.FindAllString(line, -1) {
			candidate := stripper.Replace(match)
			if strict.MatchString(candidate) {
				push(candidate)
			}
		}
	}
	if len(numbers) == 0 {
		return nil
	}
	return common.Deduplicate(numbers)
}
