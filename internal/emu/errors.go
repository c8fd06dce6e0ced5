package emu

import "errors"

// errNilHook rejects hook installation without a callback. Surfaced to the
// trigger registry, which treats binding failure as fatal.
var errNilHook = errors.New("emu: nil block hook")
