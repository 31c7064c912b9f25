package auditstore

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq atomic.Int64

// newEventID combines wall-clock time with a process-wide sequence so two
// events in the same nanosecond still get distinct ids.
func newEventID() string {
	return fmt.Sprintf("audit-%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
