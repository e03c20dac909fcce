package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed vocab.txt definitions.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// VocabList returns the embedded guessing vocabulary, one word per line.
func VocabList() ([]string, error) {
	return readLines("vocab.txt")
}

// DefinitionLines returns the embedded dictionary entries.
// Each line is "word|definition".
func DefinitionLines() ([]string, error) {
	return readLines("definitions.txt")
}
