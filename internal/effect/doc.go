// Package effect ties clips and parameters together into plugins.
//
// A Descriptor lists what a plugin declares; an Instance is one activation
// of it, owning one Clip per clip descriptor and a param.Set. Wiring happens
// through Instance.Connect before a render; BeginRender checks that every
// required clip is connected and pins the wiring until Session.End.
package effect
