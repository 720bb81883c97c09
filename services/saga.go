package services

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

type compensation struct {
	step string
	undo func(ctx context.Context) error
}

// saga acumula as ações de desfazer de uma operação em várias etapas. Em caso de
// falha, desfaz na ordem inversa.
type saga struct {
	name   string
	logger *zap.Logger
	undos  []compensation
}

func newSaga(name string, logger *zap.Logger) *saga {
	return &saga{name: name, logger: logger}
}

// done registra como desfazer uma etapa já concluída.
func (s *saga) done(step string, undo func(ctx context.Context) error) {
	s.undos = append(s.undos, compensation{step: step, undo: undo})
}

// fail registra a etapa que falhou, desfaz as anteriores e devolve cause junto com
// qualquer erro de compensação.
func (s *saga) fail(ctx context.Context, step string, cause error) error {
	s.logger.Error("etapa falhou, desfazendo",
		zap.String("saga", s.name),
		zap.String("step", step),
		zap.Int("compensations", len(s.undos)),
		zap.Error(cause),
	)

	// A compensação roda mesmo que ctx tenha sido cancelado.
	undoCtx := context.WithoutCancel(ctx)
	var result *multierror.Error
	for i := len(s.undos) - 1; i >= 0; i-- {
		c := s.undos[i]
		if err := c.undo(undoCtx); err != nil {
			s.logger.Error("falha ao desfazer etapa",
				zap.String("saga", s.name),
				zap.String("step", c.step),
				zap.Error(err),
			)
			result = multierror.Append(result, fmt.Errorf("desfazer %s: %w", c.step, err))
		}
	}
	s.undos = nil

	if result == nil {
		return cause
	}
	return multierror.Append(cause, result.Errors...)
}
