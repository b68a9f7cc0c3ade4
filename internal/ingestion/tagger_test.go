package ingestion

import (
	"reflect"
	"testing"
)

func Test_Tagger_KnownDocument(t *testing.T) {
	t.Parallel()
	tagger := NewTagger(nil, nil, wordCount)

	chunks := tagger.Tag("learning_by_doing.txt", []string{"first chunk text", "second chunk text here"})

	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.DocName != "learning_by_doing.txt" {
			t.Errorf("chunk %d doc name = %q", i, c.DocName)
		}
		if c.DocTitle != "Learning by Doing" {
			t.Errorf("chunk %d title = %q", i, c.DocTitle)
		}
		if !reflect.DeepEqual(c.AgentTags, []string{TagProfessionalLearning}) {
			t.Errorf("chunk %d tags = %v", i, c.AgentTags)
		}
	}
	if chunks[0].TokenCount != 3 || chunks[1].TokenCount != 4 {
		t.Errorf("token counts = %d, %d", chunks[0].TokenCount, chunks[1].TokenCount)
	}
}

func Test_Tagger_CurriculumDocumentsUsePlanningTag(t *testing.T) {
	t.Parallel()
	tagger := NewTagger(nil, nil, wordCount)

	for _, doc := range []string{
		"essential_standards_2nd_math.txt",
		"american_gov_smartgoals.txt",
		"3rd_grade_smartgoals.txt",
	} {
		chunks := tagger.Tag(doc, []string{"text"})
		if !reflect.DeepEqual(chunks[0].AgentTags, []string{TagCurriculumPlanning}) {
			t.Errorf("%s tags = %v, want [%s]", doc, chunks[0].AgentTags, TagCurriculumPlanning)
		}
	}
}

func Test_Tagger_UnknownDocument(t *testing.T) {
	t.Parallel()
	tagger := NewTagger(nil, nil, wordCount)

	chunks := tagger.Tag("mystery.txt", []string{"some text"})

	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	// No agent table entry: chunk carries no tags and keeps its file name
	// as title. It will never match a filtered search.
	if len(chunks[0].AgentTags) != 0 {
		t.Errorf("tags = %v, want none", chunks[0].AgentTags)
	}
	if chunks[0].DocTitle != "mystery.txt" {
		t.Errorf("title = %q, want file name fallback", chunks[0].DocTitle)
	}
}

func Test_Tagger_EmptyInput(t *testing.T) {
	t.Parallel()
	tagger := NewTagger(nil, nil, nil)

	if chunks := tagger.Tag("the_way_forward.txt", nil); len(chunks) != 0 {
		t.Errorf("want no chunks, got %d", len(chunks))
	}
}

func Test_ChunkMetadata(t *testing.T) {
	t.Parallel()

	md := chunkMetadata(Chunk{
		DocName:    "behavior_academies.txt",
		DocTitle:   "Behavior Academies",
		Index:      3,
		Text:       "chunk body",
		TokenCount: 2,
		AgentTags:  []string{TagProfessionalLearning},
	})

	want := map[string]any{
		"doc_name":                    "behavior_academies.txt",
		"doc_title":                   "Behavior Academies",
		"chunk_index":                 3,
		"token_count":                 2,
		"text":                        "chunk body",
		"agent_professional_learning": true,
	}
	if !reflect.DeepEqual(md, want) {
		t.Errorf("metadata = %v, want %v", md, want)
	}
}

func Test_ChunkMetadata_TruncatesStoredText(t *testing.T) {
	t.Parallel()

	long := make([]byte, 0, 2*metadataTextLimit)
	for len(long) < 2*metadataTextLimit {
		long = append(long, "lorem ipsum "...)
	}
	md := chunkMetadata(Chunk{DocName: "d.txt", DocTitle: "D", Text: string(long)})

	stored, _ := md["text"].(string)
	if len(stored) > metadataTextLimit {
		t.Errorf("stored text is %d bytes, limit is %d", len(stored), metadataTextLimit)
	}
}

func Test_ChunkID(t *testing.T) {
	t.Parallel()

	if got := chunkID("learning_by_doing.txt", 7); got != "learning_by_doing.txt_7" {
		t.Errorf("chunkID = %q", got)
	}
}
