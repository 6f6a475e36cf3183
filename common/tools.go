package common

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

func Deduplicate(list []string) []string {
	res := make([]string, 0, len(list))
	m := make(map[string]struct{})
	for _, v := range list {
		if _, ok := m[v]; ok {
			continue
		}
		m[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

// StringToUUID5 uses SHA1 to generate a deterministic UUID from the given string
func StringToUUID5(str string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(str)).String()
}

func Expired(expireAt time.Time) bool {
	return time.Now().After(expireAt)
}

// HomeExpand expands a leading '~' with the user home directory
func HomeExpand(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// SplitMessage splits a multi-line message into chunks of at most maxLen
// characters, breaking on line boundaries only.
func SplitMessage(message string, maxLen int) []string {
	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(message, "\n") {
		if current.Len()+len(line)+1 > maxLen && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{message}
	}
	return chunks
}
