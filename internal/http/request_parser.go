// This file parses record submissions. Forms and JSON bodies are accepted
// through the same parser, so the htmx form and API clients share one path.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds a record submission.
const maxBodyBytes = 64 << 10

// RecordInput is the raw text of a submitted record.
type RecordInput struct {
	Date     string
	Category string
	Type     string
	Amount   string
}

// Record converts the input to a validated record. An empty date means
// today in the given time's location.
func (in RecordInput) Record(now time.Time) (core.Record, error) {
	var errs []error

	date := core.Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
	if in.Date != "" {
		d, err := core.ParseDate(in.Date)
		if err != nil {
			errs = append(errs, err)
		}
		date = d
	}
	category, err := core.ParseCategory(in.Category)
	if err != nil {
		errs = append(errs, err)
	}
	typ, err := core.ParseRecordType(in.Type)
	if err != nil {
		errs = append(errs, err)
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return core.Record{}, errors.Join(errs...)
	}

	r := core.Record{Date: date, Category: category, Type: typ, Amount: amount}
	return r, r.Validate()
}

// RequestBodyParser reads the body once and exposes fields whether the
// client sent JSON or form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as a
// url-encoded form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a trimmed field value from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// RecordInput collects the four record fields.
func (p *RequestBodyParser) RecordInput() RecordInput {
	return RecordInput{
		Date:     p.Get("date"),
		Category: p.Get("category"),
		Type:     p.Get("type"),
		Amount:   p.Get("amount"),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
