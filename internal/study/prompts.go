package study

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadVariantPrompts reads <dir>/<variant>.txt for every configured
// variant. A missing file means the variant runs without a system
// prompt (the vanilla arm); that is expected and only logged.
func LoadVariantPrompts(dir string, variants []string) map[string]string {
	prompts := make(map[string]string, len(variants))
	for _, v := range variants {
		path := filepath.Join(dir, v+".txt")
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("no system prompt for variant %q (%s): running uninstructed", v, path)
			continue
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			prompts[v] = s
		}
	}
	return prompts
}
