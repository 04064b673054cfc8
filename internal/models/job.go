package models

import "github.com/vmihailenco/msgpack/v5"

// IngestionJob is the unit of work carried on the job queue, referencing
// one uploaded document. It is created when an upload completes and
// consumed exactly once by a worker.
type IngestionJob struct {
	DocumentID string `msgpack:"document_id"`
	Name       string `msgpack:"name"`
	StoredName string `msgpack:"stored_name"`
}

// Encode serializes the job for the queue payload.
func (j IngestionJob) Encode() ([]byte, error) {
	return msgpack.Marshal(j)
}

// DecodeIngestionJob parses a queue payload back into a job.
func DecodeIngestionJob(data []byte) (IngestionJob, error) {
	var j IngestionJob
	err := msgpack.Unmarshal(data, &j)
	return j, err
}
