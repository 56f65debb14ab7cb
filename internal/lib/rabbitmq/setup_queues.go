package rabbitmq

// QueueConfig очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// DecisionRoutingKey ключ маршрутизации для решения охранника.
func DecisionRoutingKey(decision string) string {
	return "decision." + decision
}

// GetAuditQueues очереди, в которые попадают записи аудита.
func GetAuditQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "access.decisions", RoutingKey: "decision.*"},
	}
}
