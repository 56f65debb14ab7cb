package services

import (
	"context"

	"github.com/publiccircle/access-gateway/internal/lib/rabbitmq"
	"github.com/publiccircle/access-gateway/internal/models"
)

// DecisionSaver хранилище записей аудита.
type DecisionSaver interface {
	SaveDecision(ctx context.Context, rec models.AuditRecord) error
}

// PostgresSink пишет записи в таблицу access_decisions.
func PostgresSink(store DecisionSaver) NamedSink {
	return NamedSink{Name: "postgres", Sink: SinkFunc(store.SaveDecision)}
}

// AMQPSink публикует записи в exchange с ключом decision.<решение>.
func AMQPSink(ch rabbitmq.Publisher, exchange string) NamedSink {
	return NamedSink{
		Name: "rabbitmq",
		Sink: SinkFunc(func(_ context.Context, rec models.AuditRecord) error {
			return rabbitmq.PublishMessage(ch, exchange, rabbitmq.DecisionRoutingKey(string(rec.Decision)), rec)
		}),
	}
}
