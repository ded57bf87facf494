package funnel

import (
	"encoding/json"
	"time"
)

// EnvelopeVersion is bumped whenever the pending-booking shape changes;
// older envelopes are discarded rather than guessed at.
const EnvelopeVersion = 1

// PendingBooking is the serialized envelope a client persists across an
// auth redirect. It is message passing across a page reload, not trusted
// ambient state: it carries a version and a timestamp, and Open rejects
// anything stale or malformed.
type PendingBooking struct {
	Version    int    `json:"version"`
	Type       Mode   `json:"type"`
	OfferingID string `json:"offering_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	EventDate  string `json:"event_date"` // Format: 2006-01-02
	Timezone   string `json:"timezone"`
	SavedAt    int64  `json:"saved_at"` // unix millis, monotonic enough for staleness
}

// Seal builds the envelope for an in-progress selection.
func Seal(mode Mode, offeringID, campaignID string, eventDate time.Time, timezone string, now time.Time) PendingBooking {
	return PendingBooking{
		Version:    EnvelopeVersion,
		Type:       mode,
		OfferingID: offeringID,
		CampaignID: campaignID,
		EventDate:  eventDate.Format("2006-01-02"),
		Timezone:   timezone,
		SavedAt:    now.UnixMilli(),
	}
}

// Open validates an envelope and returns its decoded selection. Envelopes
// older than maxAge resurrect a reservation intent against a since-changed
// availability picture, so they are rejected with ErrStaleResume.
func Open(p PendingBooking, now time.Time, maxAge time.Duration) (mode Mode, offeringID, campaignID string, eventDate time.Time, timezone string, err error) {
	if p.Version != EnvelopeVersion {
		return "", "", "", time.Time{}, "", ErrBadEnvelope
	}
	if !p.Type.Valid() || p.OfferingID == "" {
		return "", "", "", time.Time{}, "", ErrBadEnvelope
	}

	savedAt := time.UnixMilli(p.SavedAt)
	if savedAt.After(now) || now.Sub(savedAt) > maxAge {
		return "", "", "", time.Time{}, "", ErrStaleResume
	}

	eventDate, err = time.ParseInLocation("2006-01-02", p.EventDate, time.UTC)
	if err != nil {
		return "", "", "", time.Time{}, "", ErrBadEnvelope
	}

	return p.Type, p.OfferingID, p.CampaignID, eventDate, p.Timezone, nil
}

// Decode parses a raw serialized envelope.
func Decode(raw []byte) (PendingBooking, error) {
	var p PendingBooking
	if err := json.Unmarshal(raw, &p); err != nil {
		return PendingBooking{}, ErrBadEnvelope
	}
	return p, nil
}
