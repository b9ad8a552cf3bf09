package llm

import (
	"strings"
	"testing"
)

func TestFormatSources(t *testing.T) {
	got := FormatSources([]string{"first chunk", "second chunk"})
	want := "Source 1:\nfirst chunk\n\nSource 2:\nsecond chunk"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatSourcesEmpty(t *testing.T) {
	if got := FormatSources(nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestSystemPromptIncludesSources(t *testing.T) {
	prompt := SystemPrompt("Source 1:\nadapter trimming guide")
	if !strings.Contains(prompt, "adapter trimming guide") {
		t.Fatal("prompt missing the source text")
	}
	if !strings.Contains(prompt, "No import statements") {
		t.Fatal("prompt missing the interpreter rules")
	}
	for _, fn := range []string{"pca(", "standard_scale(", "np.random", "plt.scatter", "df.frame"} {
		if !strings.Contains(prompt, fn) {
			t.Fatalf("prompt missing %q", fn)
		}
	}
}
