package service

import (
	"context"
	"time"

	"ai-debate-be/internal/dto"
	"ai-debate-be/internal/pkg/logger"
	"ai-debate-be/pkg/events"
	"ai-debate-be/pkg/llm"
	"ai-debate-be/pkg/rag"
	"ai-debate-be/pkg/rag/adaptive"

	"github.com/google/uuid"
)

type IRetrievalService interface {
	AddDocument(ctx context.Context, sessionId uuid.UUID, owner, filename, title string, data []byte) (*dto.UploadDocumentResponse, error)
	ListDocuments(ctx context.Context, sessionId uuid.UUID) ([]dto.DocumentSummaryResponse, error)
	DeleteOwnerDocuments(ctx context.Context, sessionId uuid.UUID, owner string) error
	Search(ctx context.Context, sessionId uuid.UUID, req *dto.RetrieveRequest) ([]dto.RetrievedHitResponse, error)
	ResolveTactic(ctx context.Context, sessionId uuid.UUID, req *dto.TacticRequest) (*dto.TacticResponse, error)
	TouchSession(sessionId uuid.UUID)
}

type retrievalService struct {
	registry    *rag.Registry
	engine      *adaptive.Engine
	publisher   *events.Publisher
	logger      logger.ILogger
	defaultTopK int
}

func NewRetrievalService(
	registry *rag.Registry,
	engine *adaptive.Engine,
	publisher *events.Publisher,
	logger logger.ILogger,
	defaultTopK int,
) IRetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &retrievalService{
		registry:    registry,
		engine:      engine,
		publisher:   publisher,
		logger:      logger,
		defaultTopK: defaultTopK,
	}
}

func (s *retrievalService) AddDocument(ctx context.Context, sessionId uuid.UUID, owner, filename, title string, data []byte) (*dto.UploadDocumentResponse, error) {
	if owner == "" {
		owner = rag.OwnerShared
	}

	summary, err := s.registry.AddDoc(ctx, sessionId.String(), owner, filename, title, data)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.BaseEvent{
		Type: events.TypeDocumentIngested,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"owner":      summary.Owner,
			"title":      summary.Title,
			"chunks":     summary.Chunks,
		},
		OccurredAt: time.Now(),
	})

	return &dto.UploadDocumentResponse{
		Owner:  summary.Owner,
		Title:  summary.Title,
		Chunks: summary.Chunks,
	}, nil
}

func (s *retrievalService) ListDocuments(_ context.Context, sessionId uuid.UUID) ([]dto.DocumentSummaryResponse, error) {
	summaries := s.registry.ListDocs(sessionId.String())

	res := make([]dto.DocumentSummaryResponse, 0, len(summaries))
	for _, d := range summaries {
		res = append(res, dto.DocumentSummaryResponse{
			Title:  d.Title,
			Owner:  d.Owner,
			Chunks: d.Chunks,
		})
	}
	return res, nil
}

func (s *retrievalService) DeleteOwnerDocuments(ctx context.Context, sessionId uuid.UUID, owner string) error {
	if err := s.registry.DeleteAllForOwner(ctx, sessionId.String(), owner); err != nil {
		return err
	}

	s.publishEvent(events.BaseEvent{
		Type: events.TypeOwnerDocsDeleted,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"owner":      owner,
		},
		OccurredAt: time.Now(),
	})
	return nil
}

func (s *retrievalService) Search(ctx context.Context, sessionId uuid.UUID, req *dto.RetrieveRequest) ([]dto.RetrievedHitResponse, error) {
	k := req.K
	if k <= 0 {
		k = s.defaultTopK
	}

	hits, err := s.registry.Query(ctx, sessionId.String(), req.Query, req.AllowedOwners, k)
	if err != nil {
		return nil, err
	}

	res := make([]dto.RetrievedHitResponse, 0, len(hits))
	for _, h := range hits {
		res = append(res, dto.RetrievedHitResponse{
			Title:      h.Title,
			Owner:      h.Owner,
			Filename:   h.Filename,
			ChunkIndex: h.ChunkIndex,
			Snippet:    h.Snippet,
			Score:      h.Score,
		})
	}
	return res, nil
}

func (s *retrievalService) ResolveTactic(ctx context.Context, sessionId uuid.UUID, req *dto.TacticRequest) (*dto.TacticResponse, error) {
	s.registry.Touch(sessionId.String())

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	sources := make([]rag.Hit, 0, len(req.Sources))
	for _, h := range req.Sources {
		sources = append(sources, rag.Hit{
			Title:      h.Title,
			Owner:      h.Owner,
			Filename:   h.Filename,
			ChunkIndex: h.ChunkIndex,
			Snippet:    h.Snippet,
			Score:      h.Score,
		})
	}

	directive := s.engine.Decide(ctx, req.Speaker, req.Topic, history, sources, req.DefaultMode, req.CiteStyle)
	return &dto.TacticResponse{
		Mode:      directive.Mode,
		CiteStyle: directive.CiteStyle,
	}, nil
}

func (s *retrievalService) TouchSession(sessionId uuid.UUID) {
	s.registry.Touch(sessionId.String())
}

func (s *retrievalService) publishEvent(evt events.BaseEvent) {
	if err := s.publisher.Publish(evt); err != nil {
		s.logger.Error("RETRIEVAL", "Failed to publish event", map[string]interface{}{
			"event": evt.Type,
			"error": err.Error(),
		})
	}
}
