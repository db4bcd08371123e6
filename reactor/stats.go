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

package reactor

import (
	"github.com/google/uuid"

	"github.com/nabbar/corenet/reactor/backend"
)

// Stats is a point-in-time snapshot of a running reactor, exposed for
// operators and metrics scraping. Not part of the original core
// contract, added so the loop's internal state is observable from
// outside the package.
type Stats struct {
	ID           uuid.UUID
	Method       backend.Method
	ActiveFds    int
	PendingTimer int
	Running      bool
}

func (r *reactor) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		ID:           r.id,
		Method:       r.method,
		ActiveFds:    r.reg.count(),
		PendingTimer: r.tmr.len(),
		Running:      r.running,
	}
}
