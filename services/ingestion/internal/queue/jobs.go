package queue

// Subjects and stream for ingestion jobs.
const (
	StreamJobs = "INGESTION_JOBS"
	SubjectRun = "ingestion.tmdb.run"
	SubjectDLQ = "ingestion.dlq"

	durableRun = "ingestion_tmdb_run"
)

// RunJob requests one ingestion batch. Zero page caps keep the service defaults.
type RunJob struct {
	MoviePages int `json:"movie_pages,omitempty"`
	ShowPages  int `json:"show_pages,omitempty"`
}
