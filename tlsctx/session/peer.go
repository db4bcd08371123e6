/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package session

import (
	"crypto/tls"
	"net"
)

// PeerKey derives the cache key spec.md §4.6 requires: the peer's
// exact socket address, not a server-name hint. Two peers sharing a
// server name but dialing from different addresses never collide.
func PeerKey(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

// PutIfResumable stores state under peerAddr only when it actually
// carries resumable session data, rejecting the nil/empty states a
// failed or aborted handshake can hand back. A *tls.ClientSessionState
// with no ticket and no parsed session (the zero value, or one built
// from a handshake that never issued a ticket) is Invalid per
// spec.md §4.6 and must not occupy a cache slot.
func PutIfResumable(c Cache, peerAddr string, state *tls.ClientSessionState) bool {
	if state == nil || peerAddr == "" {
		return false
	}
	if !isResumable(state) {
		return false
	}
	c.Put(peerAddr, state)
	return true
}

// isResumable inspects the session ticket/state crypto/tls actually
// parsed out of state rather than trusting a non-nil pointer. Go's
// ClientSessionState exposes this only through ResumptionState: a
// parse error or a ticket-less, state-less result means the handshake
// never produced anything worth resuming.
func isResumable(state *tls.ClientSessionState) bool {
	ticket, sess, err := state.ResumptionState()
	if err != nil {
		return false
	}
	return len(ticket) > 0 || sess != nil
}
