package core

import "sort"

// Relationship statuses for the two pair ledgers. The lend pair speaks from
// the owner's position as creditor, the borrow pair as debtor.
const (
	StatusYouWillGet    = "you will get"
	StatusSettled       = "settled"
	StatusYouNeedToGive = "you need to give"
	StatusYouNeedToPay  = "you need to pay"
	StatusPaidExtra     = "paid extra"
)

type (
	// LendSummary is the given/received pair ledger for one counterparty:
	// balance = given − received.
	LendSummary struct {
		Given    float64 `json:"given"`
		Received float64 `json:"received"`
		Balance  float64 `json:"balance"`
	}

	// BorrowSummary is the borrowed/returned pair ledger for one
	// counterparty: balance = returned − borrowed. Independent of the lend
	// pair; the two ledgers are never netted together.
	BorrowSummary struct {
		Borrowed float64 `json:"borrowed"`
		Returned float64 `json:"returned"`
		Balance  float64 `json:"balance"`
	}

	// PersonLendSummary is one row of the given/received summary list.
	PersonLendSummary struct {
		PersonName string  `json:"person_name"`
		Given      float64 `json:"given"`
		Received   float64 `json:"received"`
		Balance    float64 `json:"balance"`
		Status     string  `json:"status"`
	}

	// PersonBorrowSummary is one row of the borrowed/returned summary list.
	PersonBorrowSummary struct {
		PersonName string  `json:"person_name"`
		Borrowed   float64 `json:"borrowed"`
		Returned   float64 `json:"returned"`
		Balance    float64 `json:"balance"`
		Status     string  `json:"status"`
	}

	// PersonHistory is the full-history view for one named counterparty:
	// both pair ledgers plus the raw chronological transaction list.
	PersonHistory struct {
		PersonName string        `json:"person_name"`
		Lend       LendSummary   `json:"lend_summary"`
		Borrow     BorrowSummary `json:"borrow_summary"`
		History    []LendRecord  `json:"-"`
	}

	// KindTotals is the flat four-kind rollup across the whole owner scope.
	KindTotals struct {
		Given    float64 `json:"given"`
		Received float64 `json:"received"`
		Borrowed float64 `json:"borrowed"`
		Returned float64 `json:"returned"`
	}
)

// persons returns the distinct counterparty names in first-seen order.
func persons(records []LendRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if !seen[r.PersonName] {
			seen[r.PersonName] = true
			names = append(names, r.PersonName)
		}
	}
	return names
}

func sumKind(records []LendRecord, person string, kind TransactionKind) float64 {
	var total float64
	for _, r := range records {
		if (person == "" || r.PersonName == person) && r.Kind == kind {
			total += r.Amount.InexactFloat64()
		}
	}
	return total
}

func lendStatus(balance float64) string {
	switch {
	case balance > 0:
		return StatusYouWillGet
	case balance == 0:
		return StatusSettled
	default:
		return StatusYouNeedToGive
	}
}

func borrowStatus(balance float64) string {
	switch {
	case balance < 0:
		return StatusYouNeedToPay
	case balance == 0:
		return StatusSettled
	default:
		return StatusPaidExtra
	}
}

// GivenReceivedSummaries reconciles the lend pair per counterparty across the
// scoped record set. Empty input yields an empty list.
func GivenReceivedSummaries(records []LendRecord) []PersonLendSummary {
	out := []PersonLendSummary{}
	for _, name := range persons(records) {
		given := Round2(sumKind(records, name, KindGiven))
		received := Round2(sumKind(records, name, KindReceived))
		balance := Round2(given - received)
		out = append(out, PersonLendSummary{
			PersonName: name,
			Given:      given,
			Received:   received,
			Balance:    balance,
			Status:     lendStatus(balance),
		})
	}
	return out
}

// BorrowedReturnedSummaries reconciles the borrow pair per counterparty.
func BorrowedReturnedSummaries(records []LendRecord) []PersonBorrowSummary {
	out := []PersonBorrowSummary{}
	for _, name := range persons(records) {
		borrowed := Round2(sumKind(records, name, KindBorrowed))
		returned := Round2(sumKind(records, name, KindReturned))
		balance := Round2(returned - borrowed)
		out = append(out, PersonBorrowSummary{
			PersonName: name,
			Borrowed:   borrowed,
			Returned:   returned,
			Balance:    balance,
			Status:     borrowStatus(balance),
		})
	}
	return out
}

// ReconcilePerson builds the full-history view for one counterparty. Each
// pair ledger is summed independently from records matching its kind; an
// unknown person yields zero ledgers and an empty history.
func ReconcilePerson(records []LendRecord, person string) PersonHistory {
	var history []LendRecord
	for _, r := range records {
		if r.PersonName == person {
			history = append(history, r)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		if !history[i].Date.Equal(history[j].Date) {
			return history[i].Date.Before(history[j].Date)
		}
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	given := Round2(sumKind(history, person, KindGiven))
	received := Round2(sumKind(history, person, KindReceived))
	borrowed := Round2(sumKind(history, person, KindBorrowed))
	returned := Round2(sumKind(history, person, KindReturned))

	return PersonHistory{
		PersonName: person,
		Lend: LendSummary{
			Given:    given,
			Received: received,
			Balance:  Round2(given - received),
		},
		Borrow: BorrowSummary{
			Borrowed: borrowed,
			Returned: returned,
			Balance:  Round2(returned - borrowed),
		},
		History: history,
	}
}

// TotalsByKind aggregates all four kinds across the entire scope with no
// per-person breakdown.
func TotalsByKind(records []LendRecord) KindTotals {
	return KindTotals{
		Given:    Round2(sumKind(records, "", KindGiven)),
		Received: Round2(sumKind(records, "", KindReceived)),
		Borrowed: Round2(sumKind(records, "", KindBorrowed)),
		Returned: Round2(sumKind(records, "", KindReturned)),
	}
}
