package models

// Decision — результат работы охранника; не хранится, пересчитывается на каждый запрос.
type Decision string

const (
	DecisionLoading     Decision = "loading"
	DecisionRedirecting Decision = "redirecting"
	DecisionBlocked     Decision = "blocked"
	DecisionAllowed     Decision = "allowed"
	// DecisionDenied используется охранником ролей без редиректа.
	DecisionDenied Decision = "denied"
)

// Terminal сообщает, что решение не изменится без смены входных данных.
func (d Decision) Terminal() bool {
	return d != DecisionLoading
}
