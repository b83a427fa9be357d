// Package logging emits one-line JSON log entries. Startup components
// (migration, tracing init, the reconcile sweep) share it so their log
// texture stays uniform; request logs go through the Fiber middleware
// instead.
package logging

import (
	"encoding/json"
	"log"
	"time"
)

// Line writes fields as a single JSON object with a ts field rendered in loc.
// A marshal failure drops the entry rather than aborting startup.
func Line(loc *time.Location, fields map[string]any) {
	entry := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)

	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
