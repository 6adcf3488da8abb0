// Package retune implements the retune scheduler core: the fixed-capacity
// request queue, the single-pass work loop that advances the queue head
// through its lifecycle, and the dispatcher that executes host requests
// immediately or defers them to a future hardware timestamp.
//
// Three execution contexts touch this package. The dispatcher and the work
// loop are serialized onto one run loop goroutine and therefore never race
// each other. The timer service is the lone concurrent writer, and the only
// field it may touch is an entry's state word, which is accessed atomically
// everywhere.
package retune
