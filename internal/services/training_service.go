package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/storage"
)

var ErrTrainingInProgress = errors.New("model training already in progress")

type TrainingService struct {
	store      storage.Store
	engine     *recommend.Engine
	cache      RecommendationCache
	producer   EventPublisher
	log        *logger.Logger
	path       string
	ridge      float64
	minSamples int

	mu sync.Mutex
}

func NewTrainingService(store storage.Store, engine *recommend.Engine, cache RecommendationCache, producer EventPublisher,
	log *logger.Logger, path string, ridge float64, minSamples int) *TrainingService {
	return &TrainingService{
		store:      store,
		engine:     engine,
		cache:      cache,
		producer:   producer,
		log:        log,
		path:       path,
		ridge:      ridge,
		minSamples: minSamples,
	}
}

// Train fits a new model on every stored observation, writes it to the
// model path and swaps it into the engine.
func (s *TrainingService) Train(ctx context.Context) (*models.ModelInfo, error) {
	if !s.mu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer s.mu.Unlock()

	s.log.LogProcess("TRAIN", "Loading observations")
	observations, err := s.store.ListObservations()
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}

	enc := s.engine.Encoder()
	rows := make([][]float64, 0, len(observations))
	targets := make([][recommend.NumOutputs]float64, 0, len(observations))
	for _, obs := range observations {
		if !models.IsRoomType(obs.RoomType) {
			s.log.Warn("TRAIN", fmt.Sprintf("Skipping observation %s with room type %q", obs.BookingID, obs.RoomType))
			continue
		}
		rows = append(rows, enc.Encode(obs.Profile(), obs.RoomType))
		targets = append(targets, obs.Targets())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := recommend.Fit(rows, targets, s.ridge, s.minSamples)
	if err != nil {
		s.log.Warn("TRAIN", fmt.Sprintf("Training failed on %d observations: %v", len(rows), err))
		return nil, err
	}
	model.Features = enc.FeatureNames()
	model.Version = 1
	if current := s.engine.Model(); current != nil {
		model.Version = current.Version + 1
	}

	if err := recommend.SaveModel(s.path, model); err != nil {
		return nil, fmt.Errorf("failed to save model: %w", err)
	}
	if err := s.engine.SetModel(model); err != nil {
		return nil, fmt.Errorf("failed to install model: %w", err)
	}
	metrics.RecordModelReload("train", nil)

	if s.cache != nil {
		if err := s.cache.InvalidateRecommendations(ctx); err != nil {
			s.log.Warn("REDIS", fmt.Sprintf("Failed to invalidate recommendation cache: %v", err))
		}
	}

	info := s.engine.Info()
	info.Path = s.path
	s.log.LogProcess("TRAIN", fmt.Sprintf("Model v%d trained on %d observations", model.Version, model.Samples))
	publish(s.producer, s.log, models.EventModelTrained, fmt.Sprintf("v%d", model.Version), info)
	return &info, nil
}
