package producer

import (
	"context"

	"github.com/radieske/season-betting/internal/shared/kafka"
	"github.com/radieske/season-betting/pkg/contracts/events"
)

// KafkaPublisher publica os eventos da liquidação.
// wager_settled usa o wager id como chave e game_finalized o game id.
type KafkaPublisher struct {
	Settled   kafka.MessageWriter
	Finalized kafka.MessageWriter
}

func NewKafkaPublisher(settled, finalized kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, Finalized: finalized}
}

func (p *KafkaPublisher) WagerSettled(ctx context.Context, e events.WagerSettled) error {
	return kafka.WriteJSON(ctx, p.Settled, e.WagerID, e)
}

func (p *KafkaPublisher) GameFinalized(ctx context.Context, e events.GameFinalized) error {
	return kafka.WriteJSON(ctx, p.Finalized, e.GameID, e)
}
