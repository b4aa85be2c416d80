package domain

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ConsentType identifies what a consent record grants.
type ConsentType string

// Consent types collected before an interview may be scheduled.
const (
	ConsentTypeDataProcessing ConsentType = "data_processing"
	ConsentTypeCallRecording  ConsentType = "call_recording"
)

// AllConsentTypes lists every consent record created per candidate.
var AllConsentTypes = []ConsentType{ConsentTypeDataProcessing, ConsentTypeCallRecording}

// Common validation errors for Consent.
var (
	ErrEmptyConsentCandidate = errors.New("consent candidate ID cannot be empty")
	ErrInvalidConsentType    = errors.New("invalid consent type")
)

// Consent is a per-candidate, per-type grant record. The call_recording
// grant gates interview scheduling.
type Consent struct {
	ID          uuid.UUID   `json:"id"`
	CandidateID uuid.UUID   `json:"candidate_id"`
	Token       string      `json:"token"`
	Type        ConsentType `json:"type"`
	Granted     bool        `json:"granted"`
	GrantedAt   *time.Time  `json:"granted_at,omitempty"`
	Channel     string      `json:"channel,omitempty"`
	IPAddress   string      `json:"ip_address,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewConsent creates an ungranted consent record with a fresh URL-safe token.
func NewConsent(candidateID uuid.UUID, consentType ConsentType) (*Consent, error) {
	if candidateID == uuid.Nil {
		return nil, ErrEmptyConsentCandidate
	}
	switch consentType {
	case ConsentTypeDataProcessing, ConsentTypeCallRecording:
	default:
		return nil, ErrInvalidConsentType
	}
	return &Consent{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Token:       newConsentToken(),
		Type:        consentType,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Grant marks the consent as given through the named channel.
// Granting twice returns ErrConsentAlreadyGranted.
func (c *Consent) Grant(channel, ipAddress string) error {
	if c.Granted {
		return ErrConsentAlreadyGranted
	}
	now := time.Now().UTC()
	c.Granted = true
	c.GrantedAt = &now
	c.Channel = channel
	c.IPAddress = ipAddress
	return nil
}

func newConsentToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic("consent token generation: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
