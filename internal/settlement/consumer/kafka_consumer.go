package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado aqui
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// GameFinalizedProcessor consome game_finalized e dispara a liquidação da partida.
// Callbacks de métricas são opcionais.
type GameFinalizedProcessor struct {
	Log    *zap.Logger
	Reader MessageReader
	Handle func(ctx context.Context, ev events.GameFinalized) error

	OnConsumed func()
	OnError    func(string)

	RetryDelay time.Duration // espera após falha de leitura (default 500ms)
}

// Run inicia o loop de consumo; retorna quando o contexto é cancelado
func (p *GameFinalizedProcessor) Run(ctx context.Context) error {
	delay := p.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.GameFinalized
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.GameID == "" {
			p.Log.Warn("invalid game_finalized message", zap.ByteString("key", m.Key), zap.Error(err))
			p.fail("decode")
			continue
		}

		// a passada periódica cobre o que falhar aqui
		if err := p.Handle(ctx, ev); err != nil {
			p.Log.Warn("game settlement failed", zap.String("game_id", ev.GameID), zap.Error(err))
			p.fail("handle")
		}
	}
}

func (p *GameFinalizedProcessor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
