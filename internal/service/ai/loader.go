package ai

import (
	"context"

	"livedetect/internal/config"
	"livedetect/internal/logger"
	"livedetect/internal/service/modelstore"
	"livedetect/internal/service/stream"
)

// Loader resolves a model variant through the model store and loads it.
type Loader struct {
	store     *modelstore.Store
	inputSize int
	nms       float32
	logger    *logger.Logger
}

func NewLoader(store *modelstore.Store, cfg *config.Config, logger *logger.Logger) *Loader {
	return &Loader{
		store:     store,
		inputSize: cfg.ModelInputSize,
		nms:       float32(cfg.NMSThreshold),
		logger:    logger,
	}
}

// Load fetches the model on first use and builds a detector for it.
func (l *Loader) Load(ctx context.Context, model string) (stream.Detector, error) {
	l.logger.Info("Loading model %s", model)

	path, err := l.store.Ensure(ctx, model)
	if err != nil {
		return nil, err
	}

	det, err := NewYOLO(YOLOConfig{
		ModelPath: path,
		InputSize: l.inputSize,
		NMSThresh: l.nms,
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Model ready: %s", model)
	return det, nil
}
