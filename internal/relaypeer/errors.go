package relaypeer

import "errors"

var errNotConnected = errors.New("relaypeer: side channel not currently connected")
