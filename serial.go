// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import "code.hybscloud.com/atomix"

// Serial numbers downlinks in creation order. It tags every log line of a
// downlink so that interleaved traces of several lanes can be told apart.
type Serial = uint32

// lastSerial is the serial handed to the most recent New.
var lastSerial atomix.Uint32

func nextSerial() Serial { return lastSerial.Add(1) }
