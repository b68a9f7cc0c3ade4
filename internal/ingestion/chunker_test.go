package ingestion

import (
	"strings"
	"testing"
)

// wordCount is a deterministic counter for tests: one token per word.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

func Test_Chunker_ShortDocumentSingleChunk(t *testing.T) {
	t.Parallel()
	c := NewChunker(100, 10, wordCount)

	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := c.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d: %q", len(chunks), chunks)
	}
	for _, sentence := range []string{"First sentence here.", "Second sentence here.", "Third sentence here."} {
		if !strings.Contains(chunks[0], sentence) {
			t.Errorf("chunk missing %q: %q", sentence, chunks[0])
		}
	}
}

func Test_Chunker_BudgetForcesSplit(t *testing.T) {
	t.Parallel()
	c := NewChunker(6, 0, wordCount)

	text := "one two three four. five six seven eight. nine ten eleven twelve."
	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d: %q", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if n := wordCount(chunk); n > 6 {
			t.Errorf("chunk %d has %d tokens, budget is 6: %q", i, n, chunk)
		}
	}
}

func Test_Chunker_OverlapSeedsNextChunk(t *testing.T) {
	t.Parallel()
	c := NewChunker(8, 4, wordCount)

	text := "alpha beta gamma delta. epsilon zeta eta theta. iota kappa lambda mu."
	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d: %q", len(chunks), chunks)
	}
	// Each later chunk starts with the closing sentence of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Split(chunks[i-1], "\n")
		last := prev[len(prev)-1]
		if !strings.HasPrefix(chunks[i], last) {
			t.Errorf("chunk %d does not start with predecessor tail %q: %q", i, last, chunks[i])
		}
	}
}

func Test_Chunker_OverlapNeverExceedsBudget(t *testing.T) {
	t.Parallel()
	c := NewChunker(8, 3, wordCount)

	// Every sentence is 4 tokens, larger than the overlap budget of 3, so
	// no overlap can be carried and chunks must not share sentences.
	text := "alpha beta gamma delta. epsilon zeta eta theta. iota kappa lambda mu. nu xi omicron pi."
	chunks := c.Chunk(text)

	seen := map[string]int{}
	for i, chunk := range chunks {
		for _, line := range strings.Split(chunk, "\n") {
			if first, dup := seen[line]; dup {
				t.Errorf("sentence %q appears in chunks %d and %d", line, first, i)
			}
			seen[line] = i
		}
	}
}

func Test_Chunker_OversizedUnitSplitsByWords(t *testing.T) {
	t.Parallel()
	c := NewChunker(5, 2, wordCount)

	// A single unit with no terminal punctuation, 13 words.
	text := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 w11 w12 w13"
	chunks := c.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d: %q", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if n := wordCount(chunk); n > 5 {
			t.Errorf("chunk %d has %d tokens, budget is 5: %q", i, n, chunk)
		}
	}
	if got := strings.Join(chunks, " "); got != text {
		t.Errorf("word-split lost content: %q", got)
	}
}

func Test_Chunker_EmptyAndBlankInput(t *testing.T) {
	t.Parallel()
	c := NewChunker(0, 0, nil)

	for _, text := range []string{"", "   ", "\n\n\n", " \t \n "} {
		if chunks := c.Chunk(text); chunks != nil {
			t.Errorf("Chunk(%q) = %q, want nil", text, chunks)
		}
	}
}

func Test_Chunker_BlankLinesEndUnits(t *testing.T) {
	t.Parallel()
	c := NewChunker(100, 0, wordCount)

	text := "Heading without punctuation\n\nBody sentence one. Body sentence two."
	chunks := c.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	lines := strings.Split(chunks[0], "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 units, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Heading without punctuation" {
		t.Errorf("first unit = %q", lines[0])
	}
}

func Test_Chunker_DefaultsApplied(t *testing.T) {
	t.Parallel()

	c := NewChunker(0, -1, nil)
	if c.chunkSize != DefaultChunkSize {
		t.Errorf("chunkSize = %d, want %d", c.chunkSize, DefaultChunkSize)
	}
	if c.overlap != 0 {
		t.Errorf("overlap = %d, want 0", c.overlap)
	}

	// Overlap at or above the chunk size collapses to an eighth of it.
	c = NewChunker(80, 80, nil)
	if c.overlap != 10 {
		t.Errorf("overlap = %d, want 10", c.overlap)
	}
}
