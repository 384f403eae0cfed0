// Package engine contains the tick loop and the state coordination core.
// This is the heartbeat of "Pabellón Nocturno".
//
// ARCHITECTURAL RULE: every component publishes its state changes on the
// events.Bus and reacts to other components only through subscriptions wired
// in NewEngine. All mutation happens under the Engine lock, on the tick thread.
package engine
