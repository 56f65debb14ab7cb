package guard

import "github.com/publiccircle/access-gateway/internal/models"

// CancellationReason сообщает, считается ли подписка отмененной, и почему.
// Учитывается только первый план; пустая последовательность равносильна отмене.
func CancellationReason(subs models.SubscriptionState) (string, bool) {
	plan := subs.Current()
	if plan == nil {
		return ReasonNoPlan, true
	}
	if plan.Subscription == nil {
		return ReasonNoSubscription, true
	}

	switch plan.Subscription.Status {
	case models.StatusCanceled:
		return ReasonStatusCanceled, true
	case models.StatusInactive:
		return ReasonStatusInactive, true
	}

	if plan.Subscription.CancelAtPeriodEnd {
		return ReasonCancelAtPeriodEnd, true
	}
	if plan.IsSubscriptionCanceled {
		return ReasonCanceledFlag, true
	}
	return ReasonActive, false
}

// IsSubscriptionCancelled — CancellationReason без причины.
func IsSubscriptionCancelled(subs models.SubscriptionState) bool {
	_, cancelled := CancellationReason(subs)
	return cancelled
}
