// Package model defines domain entities for the application.
package model

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind identifies the payload type carried by a record.
type Kind string

const (
	KindBill             Kind = "bill"
	KindBudget           Kind = "budget"
	KindNetWorth         Kind = "net_worth"
	KindEmergencyFund    Kind = "emergency_fund"
	KindFinancialHealth  Kind = "financial_health"
	KindQuizResult       Kind = "quiz_result"
	KindLearningProgress Kind = "learning_progress"
	KindUser             Kind = "user"
)

// ValidKinds contains all record kinds the store accepts.
var ValidKinds = []Kind{
	KindBill, KindBudget, KindNetWorth, KindEmergencyFund,
	KindFinancialHealth, KindQuizResult, KindLearningProgress, KindUser,
}

// IsValid reports whether the kind is a known record kind.
func (k Kind) IsValid() bool {
	for _, v := range ValidKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Payload is a typed record body. The store never inspects payload
// fields; validation belongs to the flow that produced it.
type Payload interface {
	PayloadKind() Kind
}

// Record is the persistence envelope shared by every domain entity.
// ID and CreatedAt are immutable after creation; Payload is replaced
// wholesale on update. A record belongs to exactly one owner key for
// its whole life.
type Record struct {
	ID           string    `json:"id"`
	OwnerKey     string    `json:"owner_key"`
	Kind         Kind      `json:"kind"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Lang         string    `json:"lang,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Payload      Payload   `json:"data"`
}

// NewID generates a lexicographically sortable record id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewRecord builds a record envelope around a payload.
func NewRecord(ownerKey string, payload Payload, contactEmail, lang string) *Record {
	return &Record{
		ID:           NewID(),
		OwnerKey:     ownerKey,
		Kind:         payload.PayloadKind(),
		ContactEmail: contactEmail,
		Lang:         lang,
		CreatedAt:    time.Now().UTC(),
		Payload:      payload,
	}
}

// recordJSON mirrors Record with a raw payload for two-phase decoding.
type recordJSON struct {
	ID           string          `json:"id"`
	OwnerKey     string          `json:"owner_key"`
	Kind         Kind            `json:"kind"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Lang         string          `json:"lang,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Payload      json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the envelope, then the payload based on Kind.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	payload, err := DecodePayload(raw.Kind, raw.Payload)
	if err != nil {
		return err
	}

	r.ID = raw.ID
	r.OwnerKey = raw.OwnerKey
	r.Kind = raw.Kind
	r.ContactEmail = raw.ContactEmail
	r.Lang = raw.Lang
	r.CreatedAt = raw.CreatedAt
	r.Payload = payload
	return nil
}

// DecodePayload decodes a raw payload into its concrete type.
func DecodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("record kind %q has no payload", kind)
	}

	var payload Payload
	switch kind {
	case KindBill:
		payload = &Bill{}
	case KindBudget:
		payload = &Budget{}
	case KindNetWorth:
		payload = &NetWorth{}
	case KindEmergencyFund:
		payload = &EmergencyFund{}
	case KindFinancialHealth:
		payload = &FinancialHealth{}
	case KindQuizResult:
		payload = &QuizResult{}
	case KindLearningProgress:
		payload = &LearningProgress{}
	case KindUser:
		payload = &User{}
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return payload, nil
}
