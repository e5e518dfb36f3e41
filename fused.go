// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"code.hybscloud.com/kont"
)

// RecvBind receives the next envelope sent up and passes it to f.
func RecvBind[B any](f func(Envelope) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Recv{}), f)
}

// SendThen delivers env down and continues with next.
func SendThen[B any](env Envelope, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Send{Envelope: env}), next)
}

// HangupDone ends the peer and returns a.
func HangupDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Hangup{}), kont.Pure(a))
}

// SendAll delivers envs down in order and continues with next.
func SendAll[B any](envs []Envelope, next kont.Eff[B]) kont.Eff[B] {
	for i := len(envs) - 1; i >= 0; i-- {
		next = SendThen(envs[i], next)
	}
	return next
}
