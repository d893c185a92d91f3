package service

import (
	"context"

	"github.com/google/uuid"

	"pdf-insight-be/internal/dto"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/pkg/logger"
	"pdf-insight-be/internal/repository/memory"
	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
	"pdf-insight-be/pkg/rag/chart"
	"pdf-insight-be/pkg/rag/response"
	"pdf-insight-be/pkg/rag/retriever"
	"pdf-insight-be/pkg/rag/state"
	"pdf-insight-be/pkg/store"
)

type IQueryService interface {
	Query(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error)
}

type queryService struct {
	retriever   *retriever.HybridRetriever
	assembler   *assembler.Assembler
	synthesizer *response.Synthesizer
	planner     *chart.Planner
	sessionRepo *memory.SessionRepository
	logger      logger.ILogger
	topK        int
}

func NewQueryService(
	hybridRetriever *retriever.HybridRetriever,
	contextAssembler *assembler.Assembler,
	synthesizer *response.Synthesizer,
	planner *chart.Planner,
	sessionRepo *memory.SessionRepository,
	sysLogger logger.ILogger,
	topK int,
) IQueryService {
	if topK <= 0 {
		topK = 8
	}
	return &queryService{
		retriever:   hybridRetriever,
		assembler:   contextAssembler,
		synthesizer: synthesizer,
		planner:     planner,
		sessionRepo: sessionRepo,
		logger:      sysLogger,
		topK:        topK,
	}
}

// Query drives one question through the retrieval lifecycle:
// retrieve, assemble, synthesize, optionally plan a chart. Any stage error
// moves the lifecycle to failed and surfaces the error; the session is only
// updated on success.
func (s *queryService) Query(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	machine := state.NewMachine()

	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		session = &store.Session{ID: sessionId}
	}

	k := request.TopK
	if k <= 0 {
		k = s.topK
	}

	if err := machine.Transition(state.Retrieving); err != nil {
		return nil, err
	}
	results, err := s.retriever.Retrieve(ctx, request.Query, k, toModalities(request.Modalities))
	if err != nil {
		return nil, s.fail(machine, err)
	}

	if err := machine.Transition(state.Assembling); err != nil {
		return nil, err
	}
	gctx, err := s.assembler.Assemble(ctx, results)
	if err != nil {
		return nil, s.fail(machine, err)
	}

	if err := machine.Transition(state.Synthesizing); err != nil {
		return nil, err
	}
	answer, err := s.synthesizer.Synthesize(ctx, request.Query, gctx, toLLMHistory(session.History))
	if err != nil {
		return nil, s.fail(machine, err)
	}

	var chartSpec *chart.ChartSpec
	if gctx.HasModality(entity.ModalityTable) {
		if err := machine.Transition(state.ChartPlanning); err != nil {
			return nil, err
		}
		var planOpts []chart.PlanOption
		if request.WantChart {
			planOpts = append(planOpts, chart.WithChartRequested())
		}
		chartSpec, err = s.planner.Plan(ctx, request.Query, gctx, planOpts...)
		if err != nil {
			// The answer stands on its own; a chart is never worth failing it.
			s.logger.Warn("query", "chart planning failed", map[string]interface{}{"error": err.Error()})
			chartSpec = nil
		}
	}

	if err := machine.Transition(state.Completed); err != nil {
		return nil, err
	}

	session.Append("user", request.Query)
	session.Append("assistant", answer.Text)
	session.LastQuery = request.Query
	s.sessionRepo.Save(session)

	s.logger.Info("query", "answered", map[string]interface{}{
		"session_id":     sessionId,
		"results":        len(results),
		"context_chunks": len(gctx.Entries),
		"confidence":     answer.Confidence,
		"low_confidence": answer.LowConfidence,
		"chart":          chartSpec != nil,
	})

	return &dto.QueryResponse{
		SessionId:     sessionId,
		Answer:        answer.Text,
		Confidence:    answer.Confidence,
		LowConfidence: answer.LowConfidence,
		Citations:     resolveCitations(answer.Citations, gctx),
		Chart:         chartSpec,
		State:         string(machine.Current()),
	}, nil
}

func (s *queryService) fail(machine *state.Machine, err error) error {
	if ferr := machine.Fail(); ferr != nil {
		s.logger.Warn("query", "lifecycle fail transition rejected", map[string]interface{}{"error": ferr.Error()})
	}
	s.logger.Error("query", "query failed", map[string]interface{}{
		"state": string(machine.Current()),
		"error": err.Error(),
	})
	return err
}

func toModalities(values []string) []entity.Modality {
	out := make([]entity.Modality, 0, len(values))
	for _, v := range values {
		out = append(out, entity.Modality(v))
	}
	return out
}

func toLLMHistory(turns []store.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

// resolveCitations maps the verified citation labels back to the page they
// came from so clients can deep-link into the source document.
func resolveCitations(labels []string, gctx assembler.GroundedContext) []dto.CitationDTO {
	pages := make(map[string]int, len(gctx.Entries))
	for _, e := range gctx.Entries {
		pages[e.Label] = e.Chunk.Page
	}

	out := make([]dto.CitationDTO, 0, len(labels))
	for _, label := range labels {
		out = append(out, dto.CitationDTO{
			Label: label,
			Page:  pages[label],
		})
	}
	return out
}
