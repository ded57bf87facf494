package funnel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundtrip(t *testing.T) {
	saved := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	eventDate := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	p := Seal(ModeCampaignPackage, "off-1", "camp-1", eventDate, "Europe/Berlin", saved)
	assert.Equal(t, EnvelopeVersion, p.Version)

	mode, offeringID, campaignID, gotDate, tz, err := Open(p, saved.Add(5*time.Minute), 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ModeCampaignPackage, mode)
	assert.Equal(t, "off-1", offeringID)
	assert.Equal(t, "camp-1", campaignID)
	assert.True(t, gotDate.Equal(eventDate))
	assert.Equal(t, "Europe/Berlin", tz)
}

func TestOpenRejectsStaleEnvelope(t *testing.T) {
	saved := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	p := Seal(ModeProduct, "off-1", "", saved, "UTC", saved)

	_, _, _, _, _, err := Open(p, saved.Add(16*time.Minute), 15*time.Minute)
	assert.ErrorIs(t, err, ErrStaleResume)
}

func TestOpenRejectsFutureTimestamp(t *testing.T) {
	saved := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	p := Seal(ModeProduct, "off-1", "", saved, "UTC", saved)

	// A saved_at in the caller's future is tampering or clock skew;
	// either way it is not trusted.
	_, _, _, _, _, err := Open(p, saved.Add(-time.Minute), 15*time.Minute)
	assert.ErrorIs(t, err, ErrStaleResume)
}

func TestOpenRejectsMalformedEnvelopes(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	good := Seal(ModeProduct, "off-1", "", now, "UTC", now)

	t.Run("wrong version", func(t *testing.T) {
		p := good
		p.Version = 99
		_, _, _, _, _, err := Open(p, now, 15*time.Minute)
		assert.ErrorIs(t, err, ErrBadEnvelope)
	})

	t.Run("unknown mode", func(t *testing.T) {
		p := good
		p.Type = "walk_in"
		_, _, _, _, _, err := Open(p, now, 15*time.Minute)
		assert.ErrorIs(t, err, ErrBadEnvelope)
	})

	t.Run("missing offering", func(t *testing.T) {
		p := good
		p.OfferingID = ""
		_, _, _, _, _, err := Open(p, now, 15*time.Minute)
		assert.ErrorIs(t, err, ErrBadEnvelope)
	})

	t.Run("bad date", func(t *testing.T) {
		p := good
		p.EventDate = "next tuesday"
		_, _, _, _, _, err := Open(p, now, 15*time.Minute)
		assert.ErrorIs(t, err, ErrBadEnvelope)
	})
}

func TestDecode(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	sealed := Seal(ModeCampaignPricingCard, "off-9", "camp-2", now, "UTC", now)

	b, err := json.Marshal(sealed)
	require.NoError(t, err)

	p, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, sealed, p)

	_, err = Decode([]byte("{not json"))
	assert.ErrorIs(t, err, ErrBadEnvelope)
}
