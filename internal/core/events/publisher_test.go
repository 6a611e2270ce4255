package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectPrefix(t *testing.T) {
	assert.Equal(t, "autoria.listing.created", (&NATSPublisher{prefix: "autoria"}).subject(ListingCreated))
	assert.Equal(t, "listing.blocked", (&NATSPublisher{}).subject(ListingBlocked))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), ListingDeleted, map[string]string{"id": "x"}))
	p.Close()
}
