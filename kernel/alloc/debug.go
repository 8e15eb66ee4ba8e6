package alloc

import (
	"os"

	"github.com/phuslu/log"
)

// Runtime debug flag for allocation logging - controlled by TEXTOS_LOG_ALLOC env var.
var logAlloc = os.Getenv("TEXTOS_LOG_ALLOC") != ""

func logFailure(allocator string, l Layout, reason string) {
	if !logAlloc {
		return
	}
	log.Debug().
		Str("allocator", allocator).
		Uint64("size", l.Size).
		Uint64("align", l.Align).
		Str("reason", reason).
		Msg("allocation failed")
}
