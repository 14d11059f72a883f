// Package ingest turns JSON Lines log files into traced records and groups
// complete batches of them by session.
package ingest

// Fields names where the session identifier, timestamp and call trace live
// inside each JSON log line. Values are gjson paths, so nested fields such as
// "meta.session" work.
type Fields struct {
	Session string `json:"session,omitempty" env:"SESSION"`
	Time    string `json:"time,omitempty" env:"TIME"`
	Trace   string `json:"trace,omitempty" env:"TRACE"`
}

// DefaultFields returns the field paths used when none are configured.
func DefaultFields() Fields {
	return Fields{
		Session: "session",
		Time:    "time",
		Trace:   "trace",
	}
}

// WithDefaults fills empty paths with their default.
func (f Fields) WithDefaults() Fields {
	d := DefaultFields()
	if f.Session == "" {
		f.Session = d.Session
	}
	if f.Time == "" {
		f.Time = d.Time
	}
	if f.Trace == "" {
		f.Trace = d.Trace
	}
	return f
}
