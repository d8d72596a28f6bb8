package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FinnhubIPOCalendar is the body of GET /calendar/ipo.
type FinnhubIPOCalendar struct {
	IPOCalendar []FinnhubIPO `json:"ipoCalendar"`
}

// FinnhubIPO is one raw calendar entry. Finnhub documents price as a range
// string and numberOfShares; priceMin, priceMax and shares are accepted too
// because some plans and proxies return them split.
type FinnhubIPO struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Date             string    `json:"date"`
	Exchange         string    `json:"exchange"`
	Status           string    `json:"status"`
	Price            FlexText  `json:"price"`
	NumberOfShares   FlexFloat `json:"numberOfShares"`
	TotalSharesValue FlexFloat `json:"totalSharesValue"`
	PriceMin         FlexFloat `json:"priceMin"`
	PriceMax         FlexFloat `json:"priceMax"`
	Shares           FlexFloat `json:"shares"`
}

// FinnhubCompanyProfile is the body of GET /stock/profile2.
type FinnhubCompanyProfile struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	IPO                  string  `json:"ipo"`
	Logo                 string  `json:"logo"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Name                 string  `json:"name"`
	Phone                string  `json:"phone"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
	Ticker               string  `json:"ticker"`
	WebURL               string  `json:"weburl"`
}

// IPORecord is a cleaned calendar entry ready for reconciliation.
type IPORecord struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Date     string  `json:"date"`
	Exchange string  `json:"exchange"`
	PriceMin float64 `json:"price_min"`
	PriceMax float64 `json:"price_max"`
	Shares   int64   `json:"shares"`
	Status   string  `json:"status"`
}

// FlexText decodes either a JSON string or a JSON number into text.
type FlexText string

func (t *FlexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FlexText(s)
		return nil
	}
	*t = FlexText(string(data))
	return nil
}

// FlexFloat decodes a JSON number, a numeric string, or null. Set reports
// whether a usable value was present; NaN and infinities are not usable.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var text FlexText
	if err := text.UnmarshalJSON(data); err != nil {
		return err
	}
	s := strings.ReplaceAll(strings.TrimSpace(string(text)), ",", "")
	if s == "" {
		*f = FlexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		*f = FlexFloat{}
		return nil
	}
	*f = FlexFloat{Value: v, Set: true}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
