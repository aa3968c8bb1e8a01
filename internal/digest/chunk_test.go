package digest

import (
	"strings"
	"testing"
)

func section(size int) string {
	return strings.Repeat("x", size)
}

func TestChunksBodyUnderLimit(t *testing.T) {
	body := section(100) + "\n\n" + section(200)
	chunks := Chunks(body, 4000)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != body {
		t.Error("a body under the limit must pass through unchanged")
	}
}

func TestChunksBoundaryIntegrity(t *testing.T) {
	s1, s2, s3 := section(1000), section(3500), section(500)
	body := s1 + "\n\n" + s2 + "\n\n" + s3

	chunks := Chunks(body, 4000)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	// 1000+3500 exceeds the budget, so the first section stands alone;
	// 3500+500 fits exactly.
	if chunks[0] != s1 {
		t.Errorf("chunk 1 = %d bytes, want section 1 alone", len(chunks[0]))
	}
	if chunks[1] != s2+"\n\n"+s3 {
		t.Errorf("chunk 2 must hold sections 2 and 3 in order, got %d bytes", len(chunks[1]))
	}

	// Reassembly reproduces the original section sequence.
	if strings.Join(chunks, "\n\n") != body {
		t.Error("concatenating chunks with the separator must reproduce the body")
	}
}

func TestChunksNoSectionSplit(t *testing.T) {
	sections := []string{section(1500), section(1500), section(1500), section(1500)}
	body := strings.Join(sections, "\n\n")

	chunks := Chunks(body, 4000)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, c := range chunks {
		for _, part := range strings.Split(c, "\n\n") {
			if len(part) != 1500 {
				t.Errorf("chunk %d split a section: piece of %d bytes", i+1, len(part))
			}
		}
	}
}

func TestChunksOversizedSectionPassesThrough(t *testing.T) {
	huge := section(6000)
	body := section(100) + "\n\n" + huge + "\n\n" + section(100)

	chunks := Chunks(body, 4000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[1] != huge {
		t.Error("an oversized section is emitted as its own chunk, never split")
	}
}

func TestChunksEmptyAndWhitespace(t *testing.T) {
	if got := Chunks("", 4000); got != nil {
		t.Errorf("empty body yields no chunks, got %v", got)
	}
	if got := Chunks("  \n\n  ", 4000); got != nil {
		t.Errorf("whitespace body yields no chunks, got %v", got)
	}
	for _, c := range Chunks(section(10)+"\n\n"+section(5000), 4000) {
		if c == "" {
			t.Error("chunks must be non-empty")
		}
	}
}
