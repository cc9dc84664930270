package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	got []Event
	err error
}

func (c *capture) Publish(_ context.Context, ev Event) error {
	c.got = append(c.got, ev)
	return c.err
}

func TestEventJSONShape(t *testing.T) {
	ev := New(LPOStatusChanged, EntityLPO, 9, 2, "delivered")

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "lpo.status_changed", body["event"])
	assert.Equal(t, "lpo", body["entity"])
	assert.EqualValues(t, 9, body["entity_id"])
	assert.Equal(t, "delivered", body["status"])
	assert.NotEmpty(t, body["id"])
	assert.Contains(t, body, "occurred_at")
	assert.NotContains(t, body, "owner_id")
	assert.EqualValues(t, 2, ev.OwnerID)
}

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &capture{}
	failing := &capture{err: errors.New("broker down")}

	err := Multi(ok, failing).Publish(context.Background(), New(RequisitionCreated, EntityRequisition, 1, 2, "pending"))

	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
}

func TestNATSSubject(t *testing.T) {
	p := &NATSPublisher{prefix: "procurement"}
	assert.Equal(t, "procurement.requisition.approved", p.Subject(RequisitionApproved))
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Publish(context.Background(), Event{}))
}
