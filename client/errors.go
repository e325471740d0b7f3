package client

import "errors"

// ErrDisconnected is returned by an operation in flight when the session to
// the peer ends, whether by clean close, transport error, or an explicit
// Close call, and by any later operation that needs the peer: a mutation,
// or a read of a list not yet cached. Reads served from the cache (GetInfo,
// GetMatrixInfo, and label or route lists already populated) keep returning
// the last cached values.
var ErrDisconnected = errors.New("client: disconnected from videohub peer")

// ErrRejected is returned by a mutation operation when the peer responded
// with NAK. It is a non-fatal error: the session continues.
var ErrRejected = errors.New("client: peer rejected request (NAK)")
