package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionJob_EncodeDecode(t *testing.T) {
	job := IngestionJob{
		DocumentID: "doc-1",
		Name:       "report.pdf",
		StoredName: "3f2a.pdf",
	}

	data, err := job.Encode()
	require.NoError(t, err)

	got, err := DecodeIngestionJob(data)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestDecodeIngestionJob_Malformed(t *testing.T) {
	_, err := DecodeIngestionJob([]byte("not msgpack at all"))
	assert.Error(t, err)
}
