package ingestion

import "github.com/edukit/coachai-go/internal/budget"

// Chunk is a tagged, retrievable unit of a source document. Chunks are
// created here during ingestion, consumed once as embedding input, and
// immutable afterwards.
type Chunk struct {
	// DocName is the source file name the chunk came from.
	DocName string
	// DocTitle is the friendly document title, falling back to DocName.
	DocTitle string
	// Index is the chunk's position within its document, unique and
	// monotonic per document.
	Index int
	// Text is the chunk content.
	Text string
	// TokenCount is the estimated token count of Text.
	TokenCount int
	// AgentTags lists the agent tag names whose corpus includes this chunk.
	// An empty list makes the chunk unretrievable by every agent.
	AgentTags []string
}

// Tagger attaches agent affinity and descriptive metadata to raw chunks
// using static document tables.
type Tagger struct {
	// agents maps document name to the agent tags its chunks receive.
	agents map[string][]string
	// titles maps document name to its friendly title.
	titles map[string]string
	// count estimates chunk token counts.
	count TokenCounter
}

// NewTagger constructs a Tagger. Nil tables fall back to the built-in
// document mappings; a nil counter falls back to the budget heuristic.
func NewTagger(agents map[string][]string, titles map[string]string, count TokenCounter) *Tagger {
	if agents == nil {
		agents = DefaultDocumentAgents()
	}
	if titles == nil {
		titles = DefaultDocumentTitles()
	}
	if count == nil {
		count = budget.EstimateWords
	}
	return &Tagger{agents: agents, titles: titles, count: count}
}

// Tag converts the ordered chunk texts of a single document into tagged
// Chunks. A document missing from the agent table gets an empty tag set
// (its chunks become unretrievable, which is not an error); a document
// missing from the title table keeps its raw file name as title.
func (t *Tagger) Tag(docName string, texts []string) []Chunk {
	title, ok := t.titles[docName]
	if !ok {
		title = docName
	}
	tags := t.agents[docName]

	chunks := make([]Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, Chunk{
			DocName:    docName,
			DocTitle:   title,
			Index:      i,
			Text:       text,
			TokenCount: t.count(text),
			AgentTags:  tags,
		})
	}
	return chunks
}

// Agent tag names used in vector metadata. The curriculum tag keeps its
// ingestion-side name, which differs from the classroom_curriculum agent id;
// the agent registry's filter matches this name.
const (
	TagProfessionalLearning = "professional_learning"
	TagCurriculumPlanning   = "curriculum_planning"
)

// DefaultDocumentAgents returns the built-in document to agent-tag table.
func DefaultDocumentAgents() map[string][]string {
	return map[string][]string{
		"behavior_academies.txt":              {TagProfessionalLearning},
		"learning_by_doing.txt":               {TagProfessionalLearning},
		"learning_by_doing_actionguide.txt":   {TagProfessionalLearning},
		"the_way_forward.txt":                 {TagProfessionalLearning},
		"essential_standards_2nd_math.txt":    {TagCurriculumPlanning},
		"american_gov_smartgoals.txt":         {TagCurriculumPlanning},
		"3rd_grade_smartgoals.txt":            {TagCurriculumPlanning},
	}
}

// DefaultDocumentTitles returns the built-in document title table.
func DefaultDocumentTitles() map[string]string {
	return map[string]string{
		"behavior_academies.txt":            "Behavior Academies",
		"learning_by_doing.txt":             "Learning by Doing",
		"learning_by_doing_actionguide.txt": "Learning by Doing: Action Guide",
		"the_way_forward.txt":               "The Way Forward",
		"essential_standards_2nd_math.txt":  "Essential Standards Second Grade Mathematics",
		"american_gov_smartgoals.txt":       "American Government Smart Goals Worksheet",
		"3rd_grade_smartgoals.txt":          "Third Grade Team Smart Goal",
	}
}
