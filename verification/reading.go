package verification

import (
	"strconv"
	"strings"
	"time"
)

// SlipReading is the canonical result of running OCR over a transfer slip.
// Fields the provider could not extract stay nil.
type SlipReading struct {
	Amount          *float64 `json:"amount"`
	TransDate       *string  `json:"trans_date"`
	TransTime       *string  `json:"trans_time"`
	Sender          Party    `json:"sender"`
	Receiver        Party    `json:"receiver"`
	Reference       *string  `json:"reference"`
	ProviderSuccess bool     `json:"provider_success"`
}

type Party struct {
	Account *string `json:"account"`
	Name    *string `json:"name"`
	Bank    *string `json:"bank"`
}

// ParsedDate returns the transfer date if it is present and parseable.
func (r *SlipReading) ParsedDate() (time.Time, bool) {
	if r.TransDate == nil {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00", "02-01-2006"} {
		if t, err := time.Parse(layout, *r.TransDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Field-priority lists per canonical attribute. Providers disagree on
// naming, so each attribute is looked up under every known alias, first
// hit wins.
var (
	amountKeys    = []string{"amount", "transAmount", "amount_detected", "paidAmount"}
	dateKeys      = []string{"transDate", "transactionDate", "date", "trans_date"}
	timeKeys      = []string{"transTime", "transactionTime", "time", "trans_time"}
	refKeys       = []string{"transRef", "reference", "ref", "transactionId"}
	senderKeys    = []string{"sender", "payer", "from"}
	receiverKeys  = []string{"receiver", "payee", "to", "beneficiary"}
	accountKeys   = []string{"account", "accountNumber", "acct", "value"}
	nameKeys      = []string{"name", "displayName", "accountName"}
	bankKeys      = []string{"bank", "bankName", "bankCode"}
)

// NormalizeProviderResponse maps a decoded provider payload into a
// SlipReading. Unknown or missing fields become nil; it never fails.
func NormalizeProviderResponse(data map[string]interface{}) *SlipReading {
	// Some providers nest the useful part under "data" or "result".
	for _, wrap := range []string{"data", "result"} {
		if inner, ok := data[wrap].(map[string]interface{}); ok {
			data = inner
			break
		}
	}

	reading := &SlipReading{ProviderSuccess: true}
	reading.Amount = pickFloat(data, amountKeys)
	reading.TransDate = pickString(data, dateKeys)
	reading.TransTime = pickString(data, timeKeys)
	reading.Reference = pickString(data, refKeys)
	reading.Sender = pickParty(data, senderKeys)
	reading.Receiver = pickParty(data, receiverKeys)
	return reading
}

func pickParty(data map[string]interface{}, keys []string) Party {
	for _, k := range keys {
		obj, ok := data[k].(map[string]interface{})
		if !ok {
			continue
		}
		// SlipOK-style payloads nest account/name one level deeper under
		// "account"/"proxy" objects holding {type, value}.
		return Party{
			Account: pickString(obj, accountKeys),
			Name:    pickString(obj, nameKeys),
			Bank:    pickString(obj, bankKeys),
		}
	}
	return Party{}
}

func pickString(data map[string]interface{}, keys []string) *string {
	for _, k := range keys {
		v, ok := data[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) == "" {
				continue
			}
			trimmed := strings.TrimSpace(s)
			return &trimmed
		case float64:
			formatted := strconv.FormatFloat(s, 'f', -1, 64)
			return &formatted
		case map[string]interface{}:
			// nested {type, value} objects
			if inner := pickString(s, []string{"value"}); inner != nil {
				return inner
			}
		}
	}
	return nil
}

func pickFloat(data map[string]interface{}, keys []string) *float64 {
	for _, k := range keys {
		v, ok := data[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case string:
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
			if err == nil {
				return &parsed
			}
		}
	}
	return nil
}
