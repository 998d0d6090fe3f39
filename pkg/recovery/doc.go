// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recovery unlocks APPROTECT'd nRF53 parts by mass erasing them
// through their CTRL-APs.
//
// A recovery runs in phases and every phase is applied to all requested
// ports before the next one starts:
//
//  1. reset: pulse RESET (1 then 0)
//  2. erase: write ERASEALL and poll ERASEALLSTATUS until it reads 0
//  3. reset again (optional, see WithResetAfterErase)
//  4. verify: read APPROTECTDISABLE and SECUREAPPROTECTDISABLE
//
// The cores of a dual core part share the flash controller, so no core is
// erased while another one is still running out of its flash.
//
// The first failed transaction ends the run. Nothing is retried and nothing
// is rolled back; a port that has been erased stays erased. The returned
// *Error records the phase every port reached.
//
// The erase poll is bounded by WithEraseTimeout. A part that never reports
// completion yields an *EraseTimeoutError rather than hanging the caller.
package recovery
