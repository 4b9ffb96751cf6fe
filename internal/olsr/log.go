package olsr

import (
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
)

// Logger is the structured logger type accepted by Config, built by pairing
// logiface's facade with the izerolog/zerolog backend (see
// izerolog.WithZerolog). A nil *Logger is valid and behaves as a discard
// logger: logiface.Logger's Build/Enabled chain is nil-safe end to end, so a
// caller that doesn't care about observability can simply leave
// Config.Logger unset.
type Logger = logiface.Logger[*izerolog.Event]
