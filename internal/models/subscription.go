package models

// Статусы подписки, которые трактуются как отмененная подписка.
const (
	StatusCanceled = "canceled"
	StatusInactive = "inactive"
	StatusActive   = "active"
)

// Subscription — вложенный объект подписки внутри плана.
type Subscription struct {
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"` // epoch seconds
}

// SubscriptionPlan — элемент упорядоченной последовательности,
// возвращаемой сервисом статуса подписки. Флаг IsSubscriptionCanceled
// лежит на уровне плана, а не внутри Subscription.
type SubscriptionPlan struct {
	Subscription           *Subscription `json:"subscription"`
	IsSubscriptionCanceled bool          `json:"isSubscriptionCanceled"`
}

// SubscriptionState — состояние данных о подписке на момент решения.
type SubscriptionState struct {
	Loading bool               `json:"loading"`
	Plans   []SubscriptionPlan `json:"plans"`
}

// Current возвращает первый план последовательности или nil.
// Остальные элементы намеренно не учитываются.
func (s SubscriptionState) Current() *SubscriptionPlan {
	if len(s.Plans) == 0 {
		return nil
	}
	return &s.Plans[0]
}
