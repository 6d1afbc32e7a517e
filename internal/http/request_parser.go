package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const dateLayout = "2006-01-02"

// decodeJSON reads a JSON body into dst, rejecting unknown fields so typos
// surface as 400s instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(query url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, &core.ValidationError{Field: key, Message: "invalid date, expected YYYY-MM-DD"}
	}
	return &t, nil
}

// parseIntParam reads an optional integer query parameter.
func parseIntParam(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &core.ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

// expenseFilterFromQuery builds the storage filter from the supported query
// parameters: date, from/to, year, month.
func expenseFilterFromQuery(query url.Values, scope core.Scope) (storage.ExpenseFilter, error) {
	filter := storage.ExpenseFilter{Scope: scope}

	date, err := parseDateParam(query, "date")
	if err != nil {
		return filter, err
	}
	filter.Date = date

	from, err := parseDateParam(query, "from")
	if err != nil {
		return filter, err
	}
	to, err := parseDateParam(query, "to")
	if err != nil {
		return filter, err
	}
	if (from == nil) != (to == nil) {
		return filter, &core.ValidationError{Field: "from", Message: "from and to must be given together"}
	}
	if from != nil && from.After(*to) {
		return filter, &core.ValidationError{Field: "from", Message: "from must not be after to"}
	}
	filter.From, filter.To = from, to

	year, err := parseIntParam(query, "year")
	if err != nil {
		return filter, err
	}
	month, err := parseIntParam(query, "month")
	if err != nil {
		return filter, err
	}
	if month != 0 && (month < 1 || month > 12) {
		return filter, &core.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if month != 0 && year == 0 {
		return filter, &core.ValidationError{Field: "year", Message: "month requires year"}
	}
	filter.Year, filter.Month = year, month

	return filter, nil
}

// granularityFromPath reads the {granularity} path segment.
func granularityFromPath(r *http.Request) (core.Granularity, error) {
	g := core.Granularity(r.PathValue("granularity"))
	if !g.Valid() {
		return "", &core.ValidationError{Field: "granularity", Message: "must be daily, monthly, or yearly"}
	}
	return g, nil
}

// expenseRequest is the JSON body for creating an expense. Amount accepts
// either a number or a string so clients can avoid float formatting issues.
type expenseRequest struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Note     string      `json:"note"`
}

func (req expenseRequest) toRecord(ownerID string) (core.ExpenseRecord, error) {
	if strings.TrimSpace(req.Date) == "" {
		return core.ExpenseRecord{}, &core.ValidationError{Field: "date", Message: "date is required"}
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return core.ExpenseRecord{}, &core.ValidationError{Field: "date", Message: "invalid date, expected YYYY-MM-DD"}
	}
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return core.ExpenseRecord{
		OwnerID:  ownerID,
		Date:     date,
		Category: core.Category(req.Category),
		Amount:   amount,
		Note:     strings.TrimSpace(req.Note),
	}, nil
}

// expensePatchRequest is the JSON body for a partial update. Absent fields
// stay untouched.
type expensePatchRequest struct {
	Date     *string      `json:"date"`
	Category *string      `json:"category"`
	Amount   *json.Number `json:"amount"`
	Note     *string      `json:"note"`
}

func (req expensePatchRequest) toPatch() (storage.ExpensePatch, error) {
	var patch storage.ExpensePatch
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return patch, &core.ValidationError{Field: "date", Message: "invalid date, expected YYYY-MM-DD"}
		}
		patch.Date = &date
	}
	if req.Category != nil {
		category := core.Category(*req.Category)
		patch.Category = &category
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(req.Amount.String())
		if err != nil {
			return patch, err
		}
		patch.Amount = &amount
	}
	if req.Note != nil {
		note := strings.TrimSpace(*req.Note)
		patch.Note = &note
	}
	return patch, nil
}

// lendRequest is the JSON body for creating a lend/return transaction.
type lendRequest struct {
	PersonName      string      `json:"person_name"`
	TransactionType string      `json:"transaction_type"`
	Amount          json.Number `json:"amount"`
	Date            string      `json:"date"`
	Note            string      `json:"note"`
}

func (req lendRequest) toRecord(ownerID string) (core.LendRecord, error) {
	if strings.TrimSpace(req.Date) == "" {
		return core.LendRecord{}, &core.ValidationError{Field: "date", Message: "date is required"}
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return core.LendRecord{}, &core.ValidationError{Field: "date", Message: "invalid date, expected YYYY-MM-DD"}
	}
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.LendRecord{}, err
	}
	return core.LendRecord{
		OwnerID:    ownerID,
		PersonName: strings.TrimSpace(req.PersonName),
		Kind:       core.TransactionKind(req.TransactionType),
		Amount:     amount,
		Date:       date,
		Note:       strings.TrimSpace(req.Note),
	}, nil
}
