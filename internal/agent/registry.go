// Package agent defines the coaching personas coachai can answer as and the
// registry that resolves them. Each agent pairs a system prompt with a
// metadata filter restricting retrieval to its slice of the knowledge base.
// The registry is built once at startup and never mutated afterwards; it is
// a constant lookup table, not a store.
package agent

import (
	"errors"
	"fmt"
	"sort"

	"github.com/edukit/coachai-go/internal/rag"
)

// ErrUnknownAgent is returned when an agent identifier is not present in the
// registry. It is a client error: the turn is rejected before any retrieval
// or generation cost is incurred.
var ErrUnknownAgent = errors.New("unknown agent")

// Agent identifiers for the built-in coaching personas.
const (
	// ProfessionalLearning coaches PLC team dynamics and collaboration.
	ProfessionalLearning = "professional_learning"
	// ClassroomCurriculum coaches standards-aligned curriculum planning.
	ClassroomCurriculum = "classroom_curriculum"
)

// Config describes a single coaching agent.
type Config struct {
	// ID is the stable agent identifier used in requests and session records.
	ID string `json:"agent_id"`

	// Name is the human-readable agent name.
	Name string `json:"name"`

	// Description summarises the agent's expertise for UI display.
	Description string `json:"description"`

	// Filter scopes similarity search to chunks tagged for this agent.
	Filter rag.Filter `json:"-"`

	// SystemPrompt is the persona injected as the system message of every
	// conversation this agent handles.
	SystemPrompt string `json:"-"`
}

// Registry resolves agent identifiers to their configurations.
type Registry struct {
	// agents maps agent id to its immutable config.
	agents map[string]Config
}

// NewRegistry constructs the registry of built-in coaching agents.
func NewRegistry() *Registry {
	return &Registry{agents: builtinAgents()}
}

// Resolve returns the configuration for agentID, or ErrUnknownAgent when the
// identifier is absent.
func (r *Registry) Resolve(agentID string) (Config, error) {
	cfg, ok := r.agents[agentID]
	if !ok {
		return Config{}, fmt.Errorf("agent: %w: %q", ErrUnknownAgent, agentID)
	}
	return cfg, nil
}

// MetadataFilter returns the retrieval filter for agentID. It satisfies
// rag.FilterResolver.
func (r *Registry) MetadataFilter(agentID string) (rag.Filter, error) {
	cfg, err := r.Resolve(agentID)
	if err != nil {
		return nil, err
	}
	return cfg.Filter, nil
}

// List returns all registered agents ordered by id for stable enumeration.
func (r *Registry) List() []Config {
	out := make([]Config, 0, len(r.agents))
	for _, cfg := range r.agents {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// builtinAgents returns the static agent table.
//
// Note the classroom_curriculum agent filters on the agent_curriculum_planning
// tag: the corpus was tagged under the ingestion-side name while the agent id
// kept the API-side name. Both sides must agree with the tagger's mapping in
// internal/ingestion, so change them together or retrieval silently returns
// nothing for the renamed side.
func builtinAgents() map[string]Config {
	return map[string]Config{
		ProfessionalLearning: {
			ID:          ProfessionalLearning,
			Name:        "Professional Learning Coach",
			Description: "Expert in PLC team dynamics, collaboration, and professional learning processes",
			Filter:      rag.Filter{"agent_professional_learning": true},
			SystemPrompt: `You are a Professional Learning Coach specializing in Professional Learning Communities (PLCs).
Your expertise lies in helping educators improve team collaboration, implement PLC frameworks, and foster effective
professional learning environments. You draw from Solution Tree's research and best practices.

Your personality is:
- Collaborative and supportive
- Focused on team dynamics and collective efficacy
- Practical and action-oriented
- Encouraging continuous improvement
- Grounded in research-based practices

When responding:
1. Always ground your advice in the retrieved documents and cite specific sources
2. Focus on actionable strategies teams can implement immediately
3. Emphasize the four critical questions of PLCs when relevant
4. Support collaborative team processes and collective responsibility
5. Provide specific examples and frameworks from the source materials

Use citations from the provided context to support your guidance.`,
		},
		ClassroomCurriculum: {
			ID:          ClassroomCurriculum,
			Name:        "Classroom Curriculum Planning Coach",
			Description: "Expert in standards-aligned curriculum design, assessment, and instructional planning",
			Filter:      rag.Filter{"agent_curriculum_planning": true},
			SystemPrompt: `You are a Classroom Curriculum Planning Coach specializing in standards-aligned curriculum design
and instructional planning. Your expertise includes creating SMART goals, aligning curriculum to standards, designing
effective assessments, and planning engaging learning experiences. You draw from Solution Tree's curriculum resources
and educational standards.

Your personality is:
- Detail-oriented and systematic
- Student-centered and outcomes-focused
- Creative in instructional design
- Standards-aligned and data-driven
- Supportive of teacher planning processes

When responding:
1. Always ground your advice in the retrieved documents and cite specific sources
2. Focus on standards alignment and backward design principles
3. Help create clear, measurable learning objectives (SMART goals)
4. Provide practical curriculum planning strategies and templates
5. Connect curriculum design to student learning outcomes
6. Offer specific examples from grade-level and subject-area resources

Use citations from the provided context to support your guidance.`,
		},
	}
}
