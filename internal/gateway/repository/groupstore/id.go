package groupstore

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq atomic.Int64

// newGroupID combines wall-clock time with a process-wide sequence so two
// creates in the same nanosecond still get distinct ids.
func newGroupID() string {
	return fmt.Sprintf("group-%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
