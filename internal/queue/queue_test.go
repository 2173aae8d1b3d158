package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	AppointmentID string `json:"appointment_id"`
	Count         int    `json:"count"`
}

func TestNewJob_EncodesPayload(t *testing.T) {
	job, err := NewJob("CancellationMail", samplePayload{AppointmentID: "a-1", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, "CancellationMail", job.Key)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.False(t, job.EnqueuedAt.IsZero())
	assert.JSONEq(t, `{"appointment_id":"a-1","count":2}`, string(job.Payload))

	var got samplePayload
	require.NoError(t, job.Decode(&got))
	assert.Equal(t, samplePayload{AppointmentID: "a-1", Count: 2}, got)
}

func TestNewJob_RequiresKey(t *testing.T) {
	_, err := NewJob("", samplePayload{})
	require.Error(t, err)
}

func TestNewJob_RejectsUnencodablePayload(t *testing.T) {
	_, err := NewJob("k", make(chan int))
	require.Error(t, err)
}

func TestDecodeJob_Envelope(t *testing.T) {
	job, err := NewJob("k", map[string]int{"n": 1})
	require.NoError(t, err)
	job.Attempts = 3

	data, err := encodeJob(job)
	require.NoError(t, err)

	got, err := decodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, 3, got.Attempts)
	assert.True(t, job.EnqueuedAt.Equal(got.EnqueuedAt))

	_, err = decodeJob([]byte("not json"))
	require.Error(t, err)
}

func TestRedis_ProcessingListPerConsumer(t *testing.T) {
	producer := NewRedis(nil, "jobs")
	w1 := NewRedisConsumer(nil, "jobs", "w1")
	w2 := NewRedisConsumer(nil, "jobs", "w2")

	assert.Equal(t, "jobs:pending", producer.pendingKey())
	assert.Equal(t, producer.pendingKey(), w1.pendingKey())
	assert.Equal(t, "jobs:processing:w1", w1.processingKey())
	assert.NotEqual(t, w1.processingKey(), w2.processingKey())
}
